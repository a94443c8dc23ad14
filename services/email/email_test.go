package emailsvc

import (
	"encoding/json"
	"net/mail"
	"testing"
	texttmpl "text/template"

	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-dashboard/core"
)

var testConf = &core.Config{
	AppName:          "Masomo",
	DefaultFromEmail: "noreply@masomo.test",
	FrontendBaseURL:  "https://masomo.test",
	SendgridApiKey:   "SG.test",
}

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	ResetSentMessages()
	svc := NewConsoleServiceMock(testConf)

	tmpl := texttmpl.Must(texttmpl.New("t").Parse("Visit {{ .FrontendBaseURL }}/{{ .Data }}"))
	messages := []*core.EmailMessage{
		{To: []mail.Address{{Address: "a@school.cd"}}, Subject: "plain", BodyStr: "hello"},
		{To: []mail.Address{{Address: "b@school.cd"}}, Subject: "templated", Template: tmpl, TemplateData: "dashboard"},
		{Subject: "no recipient", BodyStr: "dropped"},
		{To: []mail.Address{{Address: "c@school.cd"}}, Subject: "no content"},
	}
	svc.SendMessages(messages...)

	require.Len(t, SentMessages, 2)
	assert.Equal(t, "hello", SentMessages[0].TextContent)
	assert.Equal(t, "Visit https://masomo.test/dashboard", SentMessages[1].TextContent)
}

func TestSendgridService_request(t *testing.T) {
	svc := NewSendgridService(testConf, core.NewNopLogger()).(*sendgridService)
	msg := core.EmailMessage{
		To:          []mail.Address{{Name: "Amina", Address: "amina@school.cd"}},
		Cc:          []mail.Address{{Address: "head@school.cd"}},
		Subject:     "Your dashboard digest",
		TextContent: "Hi Amina",
	}

	req := svc.request(msg)
	assert.Equal(t, rest.Post, req.Method)
	assert.Equal(t, "https://api.sendgrid.com/v3/mail/send", req.BaseURL)
	assert.Equal(t, "Bearer SG.test", req.Headers["Authorization"])

	var body struct {
		From struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"from"`
		Personalizations []struct {
			To      []struct{ Email string } `json:"to"`
			Cc      []struct{ Email string } `json:"cc"`
			Subject string                   `json:"subject"`
		} `json:"personalizations"`
		Content []struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"content"`
	}
	require.NoError(t, json.Unmarshal(req.Body, &body))
	assert.Equal(t, "noreply@masomo.test", body.From.Email)
	require.Len(t, body.Personalizations, 1)
	assert.Equal(t, "[Masomo] Your dashboard digest", body.Personalizations[0].Subject)
	assert.Equal(t, "amina@school.cd", body.Personalizations[0].To[0].Email)
	assert.Equal(t, "head@school.cd", body.Personalizations[0].Cc[0].Email)
	assert.Equal(t, "Hi Amina", body.Content[0].Value)
}

func TestSendgridService_sendMessage(t *testing.T) {
	var sent []rest.Request
	orig := sendgridAPIFunc
	defer func() { sendgridAPIFunc = orig }()
	sendgridAPIFunc = func(req rest.Request) (*rest.Response, error) {
		sent = append(sent, req)
		return &rest.Response{StatusCode: 202}, nil
	}

	svc := NewSendgridService(testConf, core.NewNopLogger()).(*sendgridService)
	svc.sendMessage(&core.EmailMessage{To: []mail.Address{{Address: "a@school.cd"}}, BodyStr: "hi"})
	svc.sendMessage(&core.EmailMessage{BodyStr: "no recipient"})
	assert.Len(t, sent, 1)
}

func TestSynchronous(t *testing.T) {
	var sent int
	orig := sendgridAPIFunc
	defer func() { sendgridAPIFunc = orig }()
	sendgridAPIFunc = func(req rest.Request) (*rest.Response, error) {
		sent++
		return &rest.Response{StatusCode: 202}, nil
	}

	svc := Synchronous(NewSendgridService(testConf, core.NewNopLogger()))
	svc.SendMessages(
		&core.EmailMessage{To: []mail.Address{{Address: "a@school.cd"}}, BodyStr: "one"},
		&core.EmailMessage{To: []mail.Address{{Address: "b@school.cd"}}, BodyStr: "two"},
	)
	assert.Equal(t, 2, sent)
}
