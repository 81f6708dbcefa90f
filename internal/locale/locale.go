// Package locale holds the user-facing strings of the chat front-end.
package locale

import (
	"golang.org/x/text/language"
)

// Catalog is the set of strings shown to the user. Format strings take the
// arguments documented on each field.
type Catalog struct {
	Tag language.Tag

	Greeting     string
	InputPrompt  string
	Thinking     string
	SourcesLabel string

	// TransportError takes the underlying error text.
	TransportError string
	// AccessDenied takes the detail reported by the remote service.
	AccessDenied        string
	AccessDeniedDefault string
	AccessDeniedGeneric string
	// BadRequest takes the detail reported by the remote service.
	BadRequest        string
	BadRequestDefault string
	BadRequestGeneric string
	// HTTPError takes the status code and the status text.
	HTTPError string
	// RemoteError takes the error reported by the remote service.
	RemoteError       string
	MalformedResponse string
}

var english = Catalog{
	Tag:                 language.English,
	Greeting:            "Hello! How can I help you?",
	InputPrompt:         "Type a question here...",
	Thinking:            "Generating a reply...",
	SourcesLabel:        "Sources:",
	TransportError:      "A connection error occurred while calling the chat API: %s",
	AccessDenied:        "Access denied (403): %s. Check your API key.",
	AccessDeniedDefault: "API key error",
	AccessDeniedGeneric: "Access denied (403): invalid API key or authorization problem. Check your API key.",
	BadRequest:          "Bad request (400): %s. Check the request body.",
	BadRequestDefault:   "invalid request",
	BadRequestGeneric:   "Bad request (400): the request sent to the chat API is malformed.",
	HTTPError:           "The chat API returned HTTP %d (%s).",
	RemoteError:         "The chat API reported an error: %s",
	MalformedResponse:   "Received an unexpected response format from the chat API.",
}

var turkish = Catalog{
	Tag:                 language.Turkish,
	Greeting:            "Merhaba! Nasıl yardımcı olabilirim?",
	InputPrompt:         "Buraya bir soru yazın...",
	Thinking:            "Yanıt oluşturuluyor...",
	SourcesLabel:        "Kaynaklar:",
	TransportError:      "API isteği sırasında bir bağlantı hatası oluştu: %s",
	AccessDenied:        "Erişim Reddedildi (403): %s. API anahtarınızı kontrol edin.",
	AccessDeniedDefault: "API anahtarı hatası",
	AccessDeniedGeneric: "Erişim Reddedildi (403): Geçersiz API anahtarı veya yetkilendirme sorunu.",
	BadRequest:          "Geçersiz İstek (400): %s. İstek gövdesini kontrol edin.",
	BadRequestDefault:   "Geçersiz istek",
	BadRequestGeneric:   "Geçersiz İstek (400): Sohbet API'sine gönderilen istek yanlış formatta.",
	HTTPError:           "API isteği sırasında bir HTTP hatası oluştu: %d (%s)",
	RemoteError:         "API'den bir hata alındı: %s",
	MalformedResponse:   "Sohbet API'sinden beklenmedik bir yanıt formatı alındı.",
}

var (
	catalogs = []*Catalog{&english, &turkish}
	matcher  = language.NewMatcher([]language.Tag{language.English, language.Turkish})
)

// Lookup returns the catalog that best matches a BCP 47 tag or an
// Accept-Language style list. Unknown or empty input falls back to English.
func Lookup(pref string) *Catalog {
	tags, _, err := language.ParseAcceptLanguage(pref)
	if err != nil || len(tags) == 0 {
		return &english
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return &english
	}
	return catalogs[idx]
}

// Default returns the English catalog.
func Default() *Catalog {
	return &english
}
