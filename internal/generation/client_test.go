package generation

import (
	"context"
	"errors"
	"testing"
)

type stubText struct {
	reply string
	err   error
	key   string
}

func (s *stubText) Complete(ctx context.Context, req Request) (string, error) {
	return s.reply, s.err
}

type stubImage struct {
	name string
}

func (s *stubImage) Generate(ctx context.Context, prompt string) (*Image, error) {
	return &Image{URL: "https://img.example/" + s.name}, nil
}

func newStubClient(def Provider) (*Client, map[string]string) {
	used := map[string]string{}
	c := &Client{
		opts: Options{DefaultProvider: def},
		newOpenAIText: func(key string) TextGenerator {
			used["text"] = "openai:" + key
			return &stubText{reply: "  from openai \n"}
		},
		newAnthropicText: func(key string) TextGenerator {
			used["text"] = "anthropic:" + key
			return &stubText{reply: "from anthropic"}
		},
		newOpenAIImage: func(key string) ImageGenerator {
			return &stubImage{name: "openai"}
		},
		newHordeImage: func(key string) ImageGenerator {
			return &stubImage{name: "horde"}
		},
	}
	return c, used
}

func TestCredentials_TextProvider(t *testing.T) {
	tests := []struct {
		name      string
		creds     Credentials
		preferred Provider
		want      Provider
		ok        bool
	}{
		{"none", Credentials{}, ProviderOpenAI, "", false},
		{"horde only", Credentials{HordeKey: "h"}, "", "", false},
		{"preferred present", Credentials{OpenAIKey: "o", AnthropicKey: "a"}, ProviderAnthropic, ProviderAnthropic, true},
		{"preferred missing", Credentials{AnthropicKey: "a"}, ProviderOpenAI, ProviderAnthropic, true},
		{"no preference", Credentials{OpenAIKey: "o"}, "", ProviderOpenAI, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.creds.TextProvider(tt.preferred)
			if got != tt.want || ok != tt.ok {
				t.Errorf("TextProvider() = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestCredentials_Capabilities(t *testing.T) {
	if (Credentials{AnthropicKey: "a"}).HasImage() {
		t.Error("anthropic key alone should not be image-capable")
	}
	if !(Credentials{HordeKey: "h"}).HasImage() {
		t.Error("horde key should be image-capable")
	}
	if (Credentials{HordeKey: "h"}).HasText() {
		t.Error("horde key should not be text-capable")
	}
	merged := Credentials{OpenAIKey: "mine"}.Merge(Credentials{OpenAIKey: "server", HordeKey: "h"})
	if merged.OpenAIKey != "mine" || merged.HordeKey != "h" {
		t.Errorf("Merge() = %+v", merged)
	}
}

func TestParseProvider(t *testing.T) {
	if p, err := ParseProvider("anthropic"); err != nil || p != ProviderAnthropic {
		t.Errorf("ParseProvider(anthropic) = %q, %v", p, err)
	}
	if _, err := ParseProvider("mistral"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestClient_GenerateText_Dispatch(t *testing.T) {
	c, used := newStubClient(ProviderOpenAI)

	got, err := c.GenerateText(context.Background(), Request{User: "hi"}, Credentials{OpenAIKey: "o", AnthropicKey: "a"}, ProviderAnthropic)
	if err != nil {
		t.Fatal(err)
	}
	if got != "from anthropic" || used["text"] != "anthropic:a" {
		t.Errorf("got %q via %q", got, used["text"])
	}

	got, err = c.GenerateText(context.Background(), Request{User: "hi"}, Credentials{OpenAIKey: "o"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "from openai" {
		t.Errorf("reply should be trimmed, got %q", got)
	}
	if used["text"] != "openai:o" {
		t.Errorf("used %q", used["text"])
	}
}

func TestClient_GenerateText_NoCredentials(t *testing.T) {
	c, _ := newStubClient(ProviderOpenAI)
	_, err := c.GenerateText(context.Background(), Request{User: "hi"}, Credentials{HordeKey: "h"}, "")
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("expected ErrNoCredentials, got %v", err)
	}
}

func TestClient_GenerateText_BlankReply(t *testing.T) {
	c, _ := newStubClient(ProviderOpenAI)
	c.newOpenAIText = func(string) TextGenerator { return &stubText{reply: "   "} }

	_, err := c.GenerateText(context.Background(), Request{User: "hi"}, Credentials{OpenAIKey: "o"}, "")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestClient_GenerateImage_ProviderOrder(t *testing.T) {
	c, _ := newStubClient(ProviderOpenAI)

	img, err := c.GenerateImage(context.Background(), "map", Credentials{OpenAIKey: "o", HordeKey: "h"})
	if err != nil || img.URL != "https://img.example/openai" {
		t.Errorf("with openai key: %+v, %v", img, err)
	}

	img, err = c.GenerateImage(context.Background(), "map", Credentials{AnthropicKey: "a", HordeKey: "h"})
	if err != nil || img.URL != "https://img.example/horde" {
		t.Errorf("with horde key: %+v, %v", img, err)
	}

	_, err = c.GenerateImage(context.Background(), "map", Credentials{AnthropicKey: "a"})
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("expected ErrNoCredentials, got %v", err)
	}
}
