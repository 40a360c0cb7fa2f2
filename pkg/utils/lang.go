package utils

import (
	"github.com/abadojack/whatlanggo"
)

var whatLangOpts = whatlanggo.Options{
	Whitelist: map[whatlanggo.Lang]bool{
		whatlanggo.Eng: true,
		whatlanggo.Cmn: true,
		whatlanggo.Spa: true,
		whatlanggo.Fra: true,
		whatlanggo.Deu: true,
		whatlanggo.Jpn: true,
		whatlanggo.Rus: true,
	},
}

// WhatLang returns the English name of the detected language, "" when unsure.
func WhatLang(text string) string {
	info := whatlanggo.DetectWithOptions(text, whatLangOpts)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.String()
}
