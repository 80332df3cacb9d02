package action

import (
	"strings"
)

var locatorPrefixes = []struct {
	prefix string
	by     By
}{
	{"css=", ByCSS},
	{"id=", ByID},
	{"name=", ByName},
	{"xpath=", ByXPath},
	{"link=", ByLinkText},
	{"class=", ByClassName},
	{"tag=", ByTagName},
}

// ParseLocator splits an optional strategy prefix off a locator.
// Unprefixed locators starting with "//" or "(/" are xpath, anything else is CSS.
func ParseLocator(s string) (By, string) {
	for _, p := range locatorPrefixes {
		if strings.HasPrefix(s, p.prefix) {
			return p.by, s[len(p.prefix):]
		}
	}
	if strings.HasPrefix(s, "//") || strings.HasPrefix(s, "(/") {
		return ByXPath, s
	}
	return ByCSS, s
}

// byConstants maps Selenium By constants and their string values.
var byConstants = map[string]By{
	"by.id":           ByID,
	"by.name":         ByName,
	"by.xpath":        ByXPath,
	"by.css_selector": ByCSS,
	"by.link_text":    ByLinkText,
	"by.class_name":   ByClassName,
	"by.tag_name":     ByTagName,
	"id":              ByID,
	"name":            ByName,
	"xpath":           ByXPath,
	"css":             ByCSS,
	"css selector":    ByCSS,
	"link text":       ByLinkText,
	"class name":      ByClassName,
	"tag name":        ByTagName,
}

func lookupBy(s string) (By, bool) {
	by, ok := byConstants[strings.ToLower(strings.TrimSpace(s))]
	return by, ok
}

// findSuffixes maps find_element_by_<suffix> helpers to strategies.
var findSuffixes = map[string]By{
	"id":           ByID,
	"name":         ByName,
	"xpath":        ByXPath,
	"css_selector": ByCSS,
	"css":          ByCSS,
	"link_text":    ByLinkText,
	"class_name":   ByClassName,
	"tag_name":     ByTagName,
}
