// Package mailer renders and delivers transactional email. Messages are
// rendered from embedded HTML templates; a plain-text part is derived from
// the HTML so every message is multipart/alternative. Images referenced by
// the template can be attached inline and addressed by Content-ID.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"mime"
	"mime/quotedprintable"
	"net/http"
	"net/smtp"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"refugio/internal/config"
	"refugio/internal/middleware"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names, matching files under templates/.
const (
	TemplateWelcome          = "welcome"
	TemplateAdoptionCreated  = "adoption_created"
	TemplateAdoptionAccepted = "adoption_accepted"
	TemplateAdoptionRejected = "adoption_rejected"
	TemplateNewAnimal        = "new_animal"
	TemplateNewNews          = "new_news"
	TemplatePasswordReset    = "password_reset"
	TemplateContact          = "contact"
)

var (
	emailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "refugio_emails_sent_total",
		Help: "Total number of emails delivered, by template",
	}, []string{"template"})

	emailsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "refugio_emails_failed_total",
		Help: "Total number of email delivery failures, by template",
	}, []string{"template"})
)

// Message is a single outbound email. InlineImages maps a Content-ID (as
// referenced in the template via cid:) to an image source, either a local
// file path or an http(s) URL. A source that cannot be read is skipped; the
// message is still sent without that image.
type Message struct {
	To           []string
	Subject      string
	Template     string
	Data         any
	InlineImages map[string]string
}

// Sender delivers rendered messages. Production uses SMTPSender; tests
// substitute a recording stub.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender renders templates and delivers over SMTP with STARTTLS when the
// server offers it (net/smtp negotiates this inside SendMail).
type SMTPSender struct {
	host      string
	port      string
	username  string
	password  string
	from      string
	templates *template.Template
	stripper  *bluemonday.Policy
	fetch     *http.Client
}

// NewSMTPSender builds a sender from configuration. It fails if the embedded
// templates do not parse, so a bad template is caught at startup.
func NewSMTPSender(cfg *config.Config) (*SMTPSender, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse mail templates: %w", err)
	}
	return &SMTPSender{
		host:      cfg.SMTPHost,
		port:      cfg.SMTPPort,
		username:  cfg.SMTPUser,
		password:  cfg.SMTPPassword,
		from:      cfg.EmailFrom,
		templates: tmpl,
		stripper:  bluemonday.StrictPolicy(),
		fetch:     &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Send renders the message and delivers it. Delivery failure is a hard error;
// callers decide whether that failure aborts the surrounding operation.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("message has no recipients")
	}

	body, err := s.build(ctx, msg)
	if err != nil {
		emailsFailed.WithLabelValues(msg.Template).Inc()
		return err
	}

	addr := s.host + ":" + s.port
	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	if err := smtp.SendMail(addr, auth, s.from, msg.To, body); err != nil {
		emailsFailed.WithLabelValues(msg.Template).Inc()
		return fmt.Errorf("smtp delivery failed: %w", err)
	}

	emailsSent.WithLabelValues(msg.Template).Inc()
	middleware.Logger.InfoContext(ctx, "email sent",
		slog.String("template", msg.Template),
		slog.Int("recipients", len(msg.To)),
	)
	return nil
}

// build assembles the full RFC 2045 message: headers, then
// multipart/related wrapping multipart/alternative (text + html) plus any
// inline images.
func (s *SMTPSender) build(ctx context.Context, msg Message) ([]byte, error) {
	htmlBody, err := s.render(msg.Template, msg.Data)
	if err != nil {
		return nil, err
	}
	textBody := s.plainText(htmlBody)

	images := s.loadImages(ctx, msg.InlineImages)

	relBoundary := "rel-" + uuid.NewString()
	altBoundary := "alt-" + uuid.NewString()

	var buf bytes.Buffer
	writeHeader(&buf, "From", s.from)
	writeHeader(&buf, "To", strings.Join(msg.To, ", "))
	writeHeader(&buf, "Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	writeHeader(&buf, "MIME-Version", "1.0")
	writeHeader(&buf, "Date", time.Now().Format(time.RFC1123Z))
	writeHeader(&buf, "Content-Type", fmt.Sprintf(`multipart/related; boundary=%q`, relBoundary))
	buf.WriteString("\r\n")

	// Alternative container: plain text first, html preferred.
	fmt.Fprintf(&buf, "--%s\r\n", relBoundary)
	writeHeader(&buf, "Content-Type", fmt.Sprintf(`multipart/alternative; boundary=%q`, altBoundary))
	buf.WriteString("\r\n")

	writeTextPart(&buf, altBoundary, "text/plain; charset=utf-8", textBody)
	writeTextPart(&buf, altBoundary, "text/html; charset=utf-8", htmlBody)
	fmt.Fprintf(&buf, "--%s--\r\n", altBoundary)

	for _, img := range images {
		fmt.Fprintf(&buf, "--%s\r\n", relBoundary)
		writeHeader(&buf, "Content-Type", img.contentType)
		writeHeader(&buf, "Content-Transfer-Encoding", "base64")
		writeHeader(&buf, "Content-ID", "<"+img.cid+">")
		writeHeader(&buf, "Content-Disposition", "inline")
		buf.WriteString("\r\n")
		writeBase64(&buf, img.data)
	}
	fmt.Fprintf(&buf, "--%s--\r\n", relBoundary)

	return buf.Bytes(), nil
}

func (s *SMTPSender) render(name string, data any) (string, error) {
	var out bytes.Buffer
	if err := s.templates.ExecuteTemplate(&out, name+".html", data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return out.String(), nil
}

var collapseBlank = regexp.MustCompile(`\n{3,}`)

// plainText derives the text/plain alternative by stripping all markup.
func (s *SMTPSender) plainText(htmlBody string) string {
	// Keep some structure: block-level closers become newlines before
	// sanitizing so the stripped text is not one long line.
	replaced := strings.NewReplacer(
		"</p>", "\n\n", "</h1>", "\n\n", "</h2>", "\n\n", "</h3>", "\n\n",
		"<br>", "\n", "<br/>", "\n", "<br />", "\n", "</li>", "\n", "</tr>", "\n",
	).Replace(htmlBody)
	text := s.stripper.Sanitize(replaced)
	text = strings.TrimSpace(collapseBlank.ReplaceAllString(text, "\n\n"))
	return text
}

type inlineImage struct {
	cid         string
	contentType string
	data        []byte
}

// loadImages fetches each inline image source. A source that fails to load
// is logged and skipped rather than failing the whole message.
func (s *SMTPSender) loadImages(ctx context.Context, sources map[string]string) []inlineImage {
	images := make([]inlineImage, 0, len(sources))
	for cid, src := range sources {
		data, err := s.loadImage(ctx, src)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "skipping inline image",
				slog.String("cid", cid), slog.String("error", err.Error()))
			continue
		}
		images = append(images, inlineImage{
			cid:         cid,
			contentType: imageContentType(src),
			data:        data,
		})
	}
	return images
}

func (s *SMTPSender) loadImage(ctx context.Context, src string) ([]byte, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, err
		}
		resp, err := s.fetch.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, src)
		}
		return io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	}
	return os.ReadFile(src)
}

func imageContentType(src string) string {
	switch strings.ToLower(filepath.Ext(src)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	fmt.Fprintf(buf, "%s: %s\r\n", key, value)
}

func writeTextPart(buf *bytes.Buffer, boundary, contentType, body string) {
	fmt.Fprintf(buf, "--%s\r\n", boundary)
	writeHeader(buf, "Content-Type", contentType)
	writeHeader(buf, "Content-Transfer-Encoding", "quoted-printable")
	buf.WriteString("\r\n")
	qp := quotedprintable.NewWriter(buf)
	_, _ = qp.Write([]byte(body))
	_ = qp.Close()
	buf.WriteString("\r\n")
}

func writeBase64(buf *bytes.Buffer, data []byte) {
	const lineLen = 76
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > lineLen {
		buf.WriteString(encoded[:lineLen])
		buf.WriteString("\r\n")
		encoded = encoded[lineLen:]
	}
	buf.WriteString(encoded)
	buf.WriteString("\r\n")
}
