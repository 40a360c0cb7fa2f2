package types

import "fmt"

type TableName string

func (s TableName) Name() string {
	return fmt.Sprintf("%s%s", TABLE_PREFIX, s)
}

const TABLE_PREFIX = "studymate_"

const (
	TABLE_CHAT_SESSION = TableName("chat_sessions")
	TABLE_CHAT_MESSAGE = TableName("chat_messages")
	TABLE_DOCUMENT     = TableName("documents")
	TABLE_NOTE         = TableName("notes")
	TABLE_AUDIO_JOB    = TableName("audio_processing_results")
)
