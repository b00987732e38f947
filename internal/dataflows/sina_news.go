package dataflows

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// SinaNewsProvider crawls the sina finance roll news feed. Each article
// becomes one record; short intros are completed from the article page
// when possible.
type SinaNewsProvider struct {
	client    *resty.Client
	startPage int
	endPage   int
	fullIntro bool
}

func NewSinaNewsProvider(startPage, endPage int) *SinaNewsProvider {
	client := resty.New()
	client.SetTimeout(15 * time.Second)
	client.SetHeaders(map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36",
		"Referer":         "https://finance.sina.com.cn/",
		"Accept-Language": "zh-CN,zh;q=0.9",
	})

	return &SinaNewsProvider{
		client:    client,
		startPage: startPage,
		endPage:   endPage,
		fullIntro: true,
	}
}

func (p *SinaNewsProvider) Name() string { return "sina_news" }

func (p *SinaNewsProvider) PerSymbol() bool { return false }

// The feed answers either plain JSON or JSONP; unwrap the callback when
// present.
var jsonpPattern = regexp.MustCompile(`(?s)^\s*[\w$]+\((.*)\)\s*;?\s*$`)

type sinaFeedItem struct {
	Title      string          `json:"title"`
	Intro      string          `json:"intro"`
	URL        string          `json:"url"`
	CreateTime json.RawMessage `json:"ctime"`
}

func (p *SinaNewsProvider) Fetch(ctx context.Context, triggerTime, _ string) RecordSet {
	var rs RecordSet
	for page := p.startPage; page <= p.endPage; page++ {
		items, err := p.fetchPage(ctx, page)
		if err != nil {
			log.Printf("[sina_news] page %d failed: %v", page, err)
			continue
		}
		for _, item := range items {
			content := strings.TrimSpace(html.UnescapeString(item.Intro))
			if p.fullIntro && len([]rune(content)) < 50 && item.URL != "" {
				if body := p.fetchArticleBody(ctx, item.URL); body != "" {
					content = body
				}
			}
			if content == "" {
				content = strings.TrimSpace(html.UnescapeString(item.Title))
			}
			if content == "" {
				continue
			}
			rs = append(rs, Record{
				Title:   html.UnescapeString(item.Title),
				Content: content,
				PubTime: parseSinaTime(item.CreateTime),
				URL:     item.URL,
			})
		}
	}

	if len(rs) == 0 {
		return nil
	}

	// Collapse into the single digest record the debate consumes, keeping
	// the individual articles behind it.
	digest := buildNewsDigest(rs)
	return append(RecordSet{digest}, rs...)
}

func (p *SinaNewsProvider) fetchPage(ctx context.Context, page int) ([]sinaFeedItem, error) {
	var items []sinaFeedItem
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := p.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"pageid": "384",
				"lid":    "2519",
				"k":      "",
				"num":    "50",
				"page":   strconv.Itoa(page),
			}).
			Get("https://feed.mix.sina.com.cn/api/roll/get")
		if err != nil {
			return fmt.Errorf("fetch roll page %d: %w", page, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("roll API error %d on page %d", resp.StatusCode(), page)
		}

		body := strings.TrimSpace(string(resp.Body()))
		if m := jsonpPattern.FindStringSubmatch(body); m != nil {
			body = m[1]
		}

		var parsed struct {
			Result struct {
				Data []sinaFeedItem `json:"data"`
			} `json:"result"`
		}
		if err := json.Unmarshal([]byte(body), &parsed); err != nil {
			return fmt.Errorf("parse roll page %d: %w", page, err)
		}
		items = parsed.Result.Data
		return nil
	})
	return items, err
}

// fetchArticleBody pulls the article page and extracts the body text.
func (p *SinaNewsProvider) fetchArticleBody(ctx context.Context, url string) string {
	resp, err := p.client.R().SetContext(ctx).Get(url)
	if err != nil || resp.StatusCode() != 200 {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return ""
	}

	var paragraphs []string
	doc.Find("div#artibody p, div.article p").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	body := strings.Join(paragraphs, "\n")
	// Keep article bodies bounded, headlines plus leads are enough context.
	if runes := []rune(body); len(runes) > 1000 {
		body = string(runes[:1000])
	}
	return body
}

func parseSinaTime(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var ts int64
	if err := json.Unmarshal(raw, &ts); err == nil && ts > 0 {
		return time.Unix(ts, 0).Format("2006-01-02 15:04:05")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
			return time.Unix(n, 0).Format("2006-01-02 15:04:05")
		}
		return s
	}
	return ""
}

func buildNewsDigest(articles RecordSet) Record {
	const maxArticles = 30

	var b strings.Builder
	b.WriteString("## 财经新闻摘要\n\n")
	count := 0
	for _, a := range articles {
		if count >= maxArticles {
			break
		}
		fmt.Fprintf(&b, "- [%s] %s\n", a.PubTime, a.Title)
		count++
	}

	pubTime := ""
	if len(articles) > 0 {
		pubTime = articles[0].PubTime
	}
	return Record{
		Title:   "财经新闻汇总",
		Content: b.String(),
		PubTime: pubTime,
	}
}
