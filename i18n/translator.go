// Package i18n renders human-readable messages for issue codes.
package i18n

import (
	"regexp"
)

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "key").
type Translator interface {
	Message(code string, data map[string]string) string
}

var dictionaries = map[string]map[string]string{
	"en": {
		"invalid_type":          "invalid type: expected {expected}, got {got}",
		"required":              "required property {key} missing",
		"unknown_key":           "unknown key {key}",
		"duplicate_key":         "duplicate key",
		"too_small":             "too small: minimum {min}, got {got}",
		"too_big":               "too big: maximum {max}, got {got}",
		"too_short":             "too short: minimum {min}, got {got}",
		"too_long":              "too long: maximum {max}, got {got}",
		"pattern":               "does not match pattern {pattern}",
		"invalid_enum":          "{got} is not one of {allowed}",
		"invalid_format":        "not a valid {format}",
		"not_multiple":          "not a multiple of {multiple_of}",
		"duplicate_item":        "duplicate of item {first}",
		"no_match":              "matches none of the {keyword} alternatives",
		"union_ambiguous":       "matches more than one alternative: {matches}",
		"not_allowed":           "value not allowed",
		"discriminator_missing": "missing discriminator {key}",
		"discriminator_unknown": "unknown message type {got}",
		"parse_error":           "parse error: {error}",
		"too_complex":           "nesting exceeds maximum depth {max_depth}",
	},
	"ja": {
		"invalid_type":          "型が不正です: 期待 {expected}, 実際 {got}",
		"required":              "必須プロパティ {key} が不足しています",
		"unknown_key":           "未知のキーです: {key}",
		"duplicate_key":         "キーが重複しています",
		"too_small":             "小さすぎます: 最小 {min}, 実際 {got}",
		"too_big":               "大きすぎます: 最大 {max}, 実際 {got}",
		"too_short":             "短すぎます: 最小 {min}, 実際 {got}",
		"too_long":              "長すぎます: 最大 {max}, 実際 {got}",
		"pattern":               "パターン {pattern} に一致しません",
		"invalid_enum":          "{got} は {allowed} のいずれでもありません",
		"invalid_format":        "{format} 形式ではありません",
		"not_multiple":          "{multiple_of} の倍数ではありません",
		"duplicate_item":        "要素 {first} と重複しています",
		"no_match":              "{keyword} のいずれの候補にも一致しません",
		"union_ambiguous":       "複数の候補に一致します: {matches}",
		"not_allowed":           "この値は許可されていません",
		"discriminator_missing": "判別子 {key} がありません",
		"discriminator_unknown": "未知のメッセージ種別です: {got}",
		"parse_error":           "解析エラー: {error}",
		"too_complex":           "ネストが最大深さ {max_depth} を超えています",
	},
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var placeholder = regexp.MustCompile(`\{([a-z_]+)\}`)

func (t dictTranslator) Message(code string, data map[string]string) string {
	tmpl, ok := dictionaries[t.lang][code]
	if !ok {
		return code
	}
	return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		if v, ok := data[m[1:len(m)-1]]; ok {
			return v
		}
		return "?"
	})
}

// New returns the built-in Translator for lang ("en" or "ja"). Any other
// language falls back to English.
func New(lang string) Translator {
	if _, ok := dictionaries[lang]; !ok {
		lang = "en"
	}
	return dictTranslator{lang: lang}
}

// Languages lists the built-in dictionaries.
func Languages() []string { return []string{"en", "ja"} }

var defaultTranslator = New("en")

// T fetches an English message for the given code.
func T(code string, data map[string]string) string { return defaultTranslator.Message(code, data) }
