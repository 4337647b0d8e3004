// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package models

// FullAddress is Postmark's expanded address form.
type FullAddress struct {
	Email       string `json:"Email"`
	Name        string `json:"Name"`
	MailboxHash string `json:"MailboxHash"`
}

// Header is a single raw email header.
type Header struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

// Attachment is a file attached to an inbound email. Attachments are accepted
// and carried through the queue but never processed by the pipeline.
type Attachment struct {
	Name          string `json:"Name"`
	Content       string `json:"Content"`
	ContentType   string `json:"ContentType"`
	ContentLength int    `json:"ContentLength"`
	ContentID     string `json:"ContentID"`
}

// InboundMessage is the Postmark inbound webhook payload.
//
// Field names and casing follow Postmark's wire format exactly so the payload
// round-trips through the forwarding queue without loss.
type InboundMessage struct {
	From              string        `json:"From"`
	MessageStream     string        `json:"MessageStream"`
	FromName          string        `json:"FromName"`
	FromFull          FullAddress   `json:"FromFull"`
	To                string        `json:"To"`
	ToFull            []FullAddress `json:"ToFull"`
	Cc                string        `json:"Cc"`
	CcFull            []FullAddress `json:"CcFull"`
	Bcc               string        `json:"Bcc"`
	BccFull           []FullAddress `json:"BccFull"`
	OriginalRecipient string        `json:"OriginalRecipient"`
	ReplyTo           string        `json:"ReplyTo"`
	Subject           string        `json:"Subject"`
	MessageID         string        `json:"MessageID"`
	Date              string        `json:"Date"`
	MailboxHash       string        `json:"MailboxHash"`
	TextBody          string        `json:"TextBody"`
	HtmlBody          string        `json:"HtmlBody"`
	StrippedTextReply string        `json:"StrippedTextReply"`
	Tag               string        `json:"Tag"`
	Headers           []Header      `json:"Headers"`
	Attachments       []Attachment  `json:"Attachments"`
}

// Body returns the message text to transform: plain text preferred, HTML as a
// fallback, empty string when neither is present.
func (m *InboundMessage) Body() string {
	if m.TextBody != "" {
		return m.TextBody
	}
	return m.HtmlBody
}

// ForwardEnvelope is the payload POSTed from the router stage to the
// transformer stage: the resolved business plus the untouched inbound message.
type ForwardEnvelope struct {
	Business *Business       `json:"business"`
	Body     *InboundMessage `json:"body"`
}
