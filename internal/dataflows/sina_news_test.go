package dataflows

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONPUnwrap(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"jsonp callback", `jQuery1234({"result":{}});`, true},
		{"dollar callback", `$cb({"result":{}})`, true},
		{"plain json", `{"result":{}}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := jsonpPattern.FindStringSubmatch(tt.body)
			if (m != nil) != tt.want {
				t.Fatalf("match = %v, want %v", m != nil, tt.want)
			}
			payload := tt.body
			if m != nil {
				payload = m[1]
			}
			if !json.Valid([]byte(payload)) {
				t.Errorf("unwrapped payload %q is not valid JSON", payload)
			}
		})
	}
}

func TestParseSinaTime(t *testing.T) {
	if got := parseSinaTime(json.RawMessage(`1724029200`)); !strings.HasPrefix(got, "2024-08-1") {
		t.Errorf("numeric ctime parsed to %q", got)
	}
	if got := parseSinaTime(json.RawMessage(`"1724029200"`)); !strings.HasPrefix(got, "2024-08-1") {
		t.Errorf("string ctime parsed to %q", got)
	}
	if got := parseSinaTime(nil); got != "" {
		t.Errorf("empty ctime parsed to %q", got)
	}
}

func TestBuildNewsDigest(t *testing.T) {
	articles := RecordSet{
		{Title: "央行宣布降准", PubTime: "2024-08-19 09:00:00", Content: "正文"},
		{Title: "A股成交破万亿", PubTime: "2024-08-19 09:05:00", Content: "正文"},
	}

	digest := buildNewsDigest(articles)
	if digest.Title != "财经新闻汇总" {
		t.Errorf("digest title = %q", digest.Title)
	}
	if !strings.Contains(digest.Content, "央行宣布降准") || !strings.Contains(digest.Content, "A股成交破万亿") {
		t.Errorf("digest content missing headlines:\n%s", digest.Content)
	}
	if digest.PubTime != "2024-08-19 09:00:00" {
		t.Errorf("digest pub time = %q", digest.PubTime)
	}
}
