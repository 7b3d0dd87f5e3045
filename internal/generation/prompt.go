package generation

import (
	"fmt"
	"strings"
)

// Language selects the prompt, source labels and apology text.
type Language string

const (
	English    Language = "en"
	Indonesian Language = "id"
)

type templates struct {
	source  string
	author  string
	section string
	prompt  string // query, rendered context
	apology string // error message
}

var languageTemplates = map[Language]templates{
	English: {
		source:  "Source",
		author:  "Author",
		section: "Section",
		prompt: `You are a research assistant. Answer the question using only the sources below.

Question: %s

Sources:
%s

Instructions:
1. Answer comprehensively and formally.
2. Cite every claim with the bracketed source number, e.g. [1], [2].
3. Use only information from the sources.
4. If the sources do not contain enough information, say "information not available".
5. Write coherent, easy-to-follow paragraphs.

Answer:`,
		apology: "Sorry, an error occurred while generating the answer: %s",
	},
	Indonesian: {
		source:  "Sumber",
		author:  "Penulis",
		section: "Section",
		prompt: `Anda adalah asisten penelitian. Jawab pertanyaan hanya berdasarkan sumber yang diberikan.

Pertanyaan: %s

Sumber-sumber:
%s

Instruksi:
1. Jawab secara komprehensif dalam Bahasa Indonesia formal.
2. WAJIB gunakan sitasi [1], [2] dst. di akhir setiap klaim sesuai nomor sumber.
3. Hanya gunakan informasi dari sumber.
4. Jika informasi tidak cukup, katakan "informasi tidak tersedia".
5. Tulis dalam bentuk paragraf yang koheren dan mudah dipahami.

Jawaban:`,
		apology: "Maaf, terjadi kesalahan dalam menghasilkan jawaban: %s",
	},
}

// ParseLanguage returns the language named by s.
func ParseLanguage(s string) (Language, error) {
	lang := Language(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := languageTemplates[lang]; !ok {
		return "", fmt.Errorf("unsupported language: %s (supported: en, id)", s)
	}
	return lang, nil
}

func templatesFor(lang Language) templates {
	if t, ok := languageTemplates[lang]; ok {
		return t
	}
	return languageTemplates[English]
}

// BuildPrompt embeds the query and the rendered context in the fixed instruction template.
func BuildPrompt(query, rendered string, lang Language) string {
	return fmt.Sprintf(templatesFor(lang).prompt, query, rendered)
}

// Apology returns the degraded answer text for a generation error.
func Apology(err error, lang Language) string {
	return fmt.Sprintf(templatesFor(lang).apology, err.Error())
}
