package codeblocks

import (
	"regexp"
	"strings"
)

// PlainText is the language used when nothing else matches.
const PlainText = "plaintext"

type languageRule struct {
	pattern  *regexp.Regexp
	language string
}

// languageRules are tried in order; the first match wins.
var languageRules = []languageRule{
	{regexp.MustCompile(`(?m)^(def|class|import|from|if __name__|print\()`), "python"},
	{regexp.MustCompile(`(?m)^(const|let|var|function|import|export|=>)`), "javascript"},
	{regexp.MustCompile(`(?m)^(interface|type|namespace)`), "typescript"},
	{regexp.MustCompile(`(?m)^(<!DOCTYPE|<html|<div|<span)`), "html"},
	{regexp.MustCompile(`(?m)^(\.|#)[a-zA-Z].*\{`), "css"},
	{regexp.MustCompile(`^\{[\s\S]*"[^"]+"\s*:`), "json"},
	{regexp.MustCompile(`(?m)^(#!/bin/|npm |yarn |pnpm |cd |ls |mkdir )`), "bash"},
	{regexp.MustCompile(`(?im)^(SELECT|INSERT|UPDATE|DELETE|CREATE|DROP)`), "sql"},
}

// DetectLanguage guesses the language of code from line-start keywords.
func DetectLanguage(code string) string {
	trimmed := strings.TrimSpace(code)
	for _, rule := range languageRules {
		if rule.pattern.MatchString(trimmed) {
			return rule.language
		}
	}
	return PlainText
}

var reLanguageMarker = regexp.MustCompile("^`(\\w+)$")

// languageMarker reports the language named by a marker line such as
// "`python". Markers are 20 characters or shorter.
func languageMarker(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "`") || len(line) >= 20 {
		return "", false
	}
	m := reLanguageMarker.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}
