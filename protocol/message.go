// Package protocol carries page commands and notifications between a page
// session and its controller.
package protocol

import (
	"encoding/json"

	"github.com/ZaguanLabs/autotranslate"
)

// Command names a message.
type Command string

// Commands a controller sends to a page.
const (
	CmdTranslatePage         Command = "translatePage"
	CmdDisplayOriginalPage   Command = "displayOriginalPage"
	CmdDisplayTranslatedPage Command = "displayTranslatedPage"
	CmdRequestState          Command = "requestState"
)

// Notifications a page sends back.
const (
	CmdPostState                       Command = "postState"
	CmdNotifyRequestProcessing         Command = "notifyRequestProcessing"
	CmdNotifyRequestProcessingFinished Command = "notifyRequestProcessingFinished"
	CmdNotifyError                     Command = "notifyError"
)

// Message is one protocol message.
type Message struct {
	Command    Command         `json:"command"`
	Session    string          `json:"session,omitempty"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// TranslatePageParams are the parameters of translatePage.
type TranslatePageParams struct {
	TargetLanguage string                  `json:"targetLanguage"`
	CharacterLimit int                     `json:"characterLimit"`
	APIConfig      autotranslate.APIConfig `json:"apiConfig"`
}

// StateParams are the parameters of postState.
type StateParams struct {
	State string `json:"state"`
}

// ProcessingParams are the parameters of notifyRequestProcessing.
type ProcessingParams struct {
	Batches int `json:"batches"`
}

// FinishedParams are the parameters of notifyRequestProcessingFinished.
type FinishedParams struct {
	TargetLanguage string `json:"targetLanguage"`
	Batches        int    `json:"batches"`
	Units          int    `json:"units"`
	Excluded       int    `json:"excluded"`
	Translated     int    `json:"translated"`
	Dropped        int    `json:"dropped"`
	Missing        int    `json:"missing"`
	FailedBatches  int    `json:"failedBatches"`
	ElapsedMs      int64  `json:"elapsedMs"`
}

// ErrorParams are the parameters of notifyError.
type ErrorParams struct {
	Kind    string `json:"kind"` // transport, protocol, markup or unknown
	Message string `json:"message"`
	Batch   int    `json:"batch"`
	Units   int    `json:"units"`
}

// NewMessage builds a message with encoded parameters. Nil params leave the
// parameters out.
func NewMessage(cmd Command, session string, params interface{}) (Message, error) {
	msg := Message{Command: cmd, Session: session}
	if params == nil {
		return msg, nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return Message{}, err
	}
	msg.Parameters = data
	return msg, nil
}

// DecodeParameters decodes the message parameters into v. Missing parameters
// leave v untouched.
func (m Message) DecodeParameters(v interface{}) error {
	if len(m.Parameters) == 0 || string(m.Parameters) == "null" {
		return nil
	}
	return json.Unmarshal(m.Parameters, v)
}

func finishedParams(s autotranslate.Summary) FinishedParams {
	return FinishedParams{
		TargetLanguage: s.TargetLanguage,
		Batches:        s.Batches,
		Units:          s.Units,
		Excluded:       s.Excluded,
		Translated:     s.Translated,
		Dropped:        s.Dropped,
		Missing:        s.Missing,
		FailedBatches:  s.FailedBatches,
		ElapsedMs:      s.Elapsed.Milliseconds(),
	}
}
