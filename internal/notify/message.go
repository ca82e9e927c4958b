package notify

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/nhle/crm-alerts/internal/model"
)

// Compose renders p as an RFC 5322 message with a single text/plain part.
func Compose(from string, p model.NotificationPayload, date time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(date)
	h.SetSubject(Subject(p))
	h.SetAddressList("From", []*mail.Address{{Address: fromOrDefault(from)}})
	if p.OwnerEmail != "" {
		h.SetAddressList("To", []*mail.Address{{Name: p.OwnerName, Address: p.OwnerEmail}})
	}
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generating message id: %w", err)
	}
	if id := p.AdditionalData["alertId"]; id != "" {
		h.Set("X-Crm-Alert-Id", id)
	}
	h.Set("X-Crm-Alert-Type", string(p.AlertType))

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}
	if _, err := io.WriteString(w, Body(p)); err != nil {
		return nil, fmt.Errorf("writing message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing message writer: %w", err)
	}
	return buf.Bytes(), nil
}
