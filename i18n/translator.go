package i18n

import (
	"sort"
	"strings"
	"sync"
)

// Translator retrieves localized messages for Issue and violation codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "name").
type Translator interface {
	Message(code string, data map[string]string) string
}

var dictionaries = map[string]map[string]string{
	"en": {
		"invalid_type":            "invalid type: expected {expected}",
		"required":                "required {kind} '{name}' missing",
		"unknown_key":             "unknown {kind} '{name}'",
		"duplicate_key":           "duplicate key",
		"too_many":                "'{name}' must not repeat",
		"not_nullable":            "value must not be empty",
		"no_union_match":          "value matches none of {count} alternatives",
		"malformed_document":      "malformed document",
		"configuration_ambiguity": "more than one configuration entry matches",
		"persistence_failure":     "schema could not be stored",
		"corrupt_entry":           "stored schema is corrupt",
		"validation_failure":      "document does not match its schema",
	},
	"ja": {
		"invalid_type":            "型が不正です: {expected} が必要です",
		"required":                "必須の{kind} '{name}' が不足しています",
		"unknown_key":             "未知の{kind} '{name}' です",
		"duplicate_key":           "キーが重複しています",
		"too_many":                "'{name}' は繰り返せません",
		"not_nullable":            "空の値は許可されていません",
		"no_union_match":          "{count} 個の候補のいずれにも一致しません",
		"malformed_document":      "文書を解析できません",
		"configuration_ambiguity": "複数の設定エントリが一致します",
		"persistence_failure":     "スキーマを保存できませんでした",
		"corrupt_entry":           "保存済みスキーマが破損しています",
		"validation_failure":      "文書がスキーマに一致しません",
	},
}

// kindWords localizes the {kind} placeholder.
var kindWords = map[string]map[string]string{
	"ja": {"element": "要素", "attribute": "属性", "property": "プロパティ"},
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	tmpl, ok := dictionaries[t.lang][code]
	if !ok {
		return code
	}
	if len(data) == 0 || !strings.Contains(tmpl, "{") {
		return tmpl
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		v := data[k]
		if k == "kind" {
			if w, ok := kindWords[t.lang][v]; ok {
				v = w
			}
		}
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	mu.Lock()
	currentTranslator = dictTranslator{lang: lang}
	mu.Unlock()
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
