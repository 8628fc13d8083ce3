package mailer

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"testing"

	"github.com/selvaggiesteban/form-tester/internal/config"
)

// fakeSMTPServer speaks just enough SMTP for Send. It rejects recipients
// starting with "bounce" with a permanent 550 and accepts everything else.
func fakeSMTPServer(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveSMTP(conn)
		}
	}()

	return ln.Addr().String()
}

func serveSMTP(conn net.Conn) {
	defer conn.Close()

	w := bufio.NewWriter(conn)
	r := bufio.NewReader(conn)

	reply := func(line string) {
		_, _ = w.WriteString(line + "\r\n")
		_ = w.Flush()
	}

	reply("220 test.local ESMTP")

	inData := false
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")

		if inData {
			if line == "." {
				inData = false
				reply("250 2.0.0 queued")
			}
			continue
		}

		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "EHLO"), strings.HasPrefix(upper, "HELO"):
			reply("250-test.local")
			reply("250 SIZE 1048576")
		case strings.HasPrefix(upper, "MAIL FROM:"):
			reply("250 2.1.0 OK")
		case strings.HasPrefix(upper, "RCPT TO:"):
			if strings.Contains(strings.ToLower(line), "bounce") {
				reply("550 5.1.1 user unknown")
			} else {
				reply("250 2.1.5 OK")
			}
		case upper == "DATA":
			inData = true
			reply("354 go ahead")
		case upper == "QUIT":
			reply("221 bye")
			return
		default:
			reply("250 OK")
		}
	}
}

func testMailer(t *testing.T) *Mailer {
	t.Helper()

	addr := fakeSMTPServer(t)
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatal(err)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatal(err)
	}

	return New(config.SMTPConfig{
		Host:      host,
		Port:      port,
		FromEmail: "bot@example.com",
	})
}

// TestSend tests delivery and bounce classification against a fake server.
func TestSend(t *testing.T) {
	t.Parallel()

	t.Run("delivers to accepted recipient", func(t *testing.T) {
		t.Parallel()

		m := testMailer(t)
		err := m.Send(context.Background(), Message{
			To:      "owner@example.com",
			Subject: "Test Contact Form Submission",
			Body:    "hello",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("permanent rejection is a hard bounce", func(t *testing.T) {
		t.Parallel()

		m := testMailer(t)
		err := m.Send(context.Background(), Message{
			To:      "bounce@example.com",
			Subject: "s",
			Body:    "b",
		})
		if !errors.Is(err, ErrHardBounce) {
			t.Fatalf("expected ErrHardBounce, got %v", err)
		}
	})

	t.Run("unconfigured mailer refuses to send", func(t *testing.T) {
		t.Parallel()

		m := New(config.SMTPConfig{})
		err := m.Send(context.Background(), Message{To: "a@b.com"})
		if !errors.Is(err, ErrNotConfigured) {
			t.Fatalf("expected ErrNotConfigured, got %v", err)
		}
	})
}

// TestIsPermanentReject tests SMTP code classification.
func TestIsPermanentReject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"550 user unknown", &textproto.Error{Code: 550, Msg: "user unknown"}, true},
		{"552 mailbox full", &textproto.Error{Code: 552, Msg: "mailbox full"}, true},
		{"421 try later", &textproto.Error{Code: 421, Msg: "try later"}, false},
		{"450 greylisted", &textproto.Error{Code: 450, Msg: "greylisted"}, false},
		{"plain error", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := isPermanentReject(tt.err); got != tt.want {
				t.Errorf("isPermanentReject() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestBuildMessage tests wire format and header injection defense.
func TestBuildMessage(t *testing.T) {
	t.Parallel()

	data := string(buildMessage("bot@example.com", Message{
		To:      "owner@example.com",
		Subject: "Line1\r\nBcc: evil@example.com",
		Body:    "body text",
	}))

	if !strings.Contains(data, "From: bot@example.com\r\n") {
		t.Error("missing From header")
	}
	if !strings.Contains(data, "To: owner@example.com\r\n") {
		t.Error("missing To header")
	}
	if strings.Contains(data, "\r\nBcc:") {
		t.Error("header injection was not neutralized")
	}
	if !strings.HasSuffix(data, "body text\r\n") {
		t.Error("body should end the message")
	}

	headerEnd := strings.Index(data, "\r\n\r\n")
	if headerEnd < 0 {
		t.Fatal("missing header/body separator")
	}
}
