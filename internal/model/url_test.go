package model

import (
	"encoding/json"
	"testing"
)

func TestURLPage_KeepsOrder(t *testing.T) {
	page := URLPage{
		{Code: "ss", URL: "https://b.com"},
		{Code: "Ds", URL: "https://a.com/?x=1&y=2"},
		{Code: "-", URL: "https://c.com"},
	}

	body, err := json.Marshal(Response{Status: 200, Message: page})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"status":200,"message":{"ss":"https://b.com","Ds":"https://a.com/?x=1\u0026y=2","-":"https://c.com"}}`
	if string(body) != want {
		t.Errorf("got %s\nwant %s", body, want)
	}
}

func TestURLPage_Empty(t *testing.T) {
	body, err := json.Marshal(URLPage(nil))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(body) != "{}" {
		t.Errorf("got %s; want {}", body)
	}
}
