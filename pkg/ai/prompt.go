package ai

import "strings"

const PROMPT_CHAT_SYSTEM = `You are a helpful study assistant inside a note-taking application.
Answer using the documents and notes the user attached when they are relevant, and say so when they do not contain the answer.
Format answers in Markdown. ${lang_hint}`

const PROMPT_EXTRACT_TEXT = `Extract all readable text from the attached file.
Keep the original reading order and headings, convert tables to Markdown tables, and do not add commentary.`

const PROMPT_ANALYZE_STRUCTURE = `Analyze the structure of the following document titled "${title}".
Return JSON with the fields "outline" (array of section headings in order), "key_concepts" (array of strings) and "difficulty" (one of "introductory", "intermediate", "advanced").`

const PROMPT_GENERATE_NOTE = `Create a study note from the following document titled "${title}".
Return JSON with the fields "title", "category", "content" (Markdown), "summary" (at most 3 sentences) and "tags" (2 to 5 short tags).`

const PROMPT_PROCESS_AUDIO = `The attached file is a class recording.
Return JSON with the fields "transcript" (full transcript), "summary" (structured Markdown summary of the lecture) and "translation" (the transcript translated to ${target_language}, empty when no target language is given).`

// ReplaceVars fills ${key} placeholders in tpl.
func ReplaceVars(tpl string, vars map[string]string) string {
	if len(vars) == 0 {
		return tpl
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "${"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}

// LangHint asks the model to reply in lang, empty when lang is unknown.
func LangHint(lang string) string {
	if lang == "" {
		return ""
	}
	return "Reply in " + lang + " unless the user asks otherwise."
}
