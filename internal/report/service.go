package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"medicare-backend/internal/analysis"

	"github.com/rs/zerolog"
	"github.com/signintech/gopdf"
)

// DefaultFontPaths are tried in order when no font is configured.
var DefaultFontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

const (
	fontName   = "DejaVu"
	textWidth  = 500
	pageBottom = 780
)

type TelegramClient interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, data []byte, fileName, caption string) error
}

// Renderer draws a triage session as an A4 PDF.
type Renderer struct {
	fontPaths []string
}

// NewRenderer uses fontPath when set, otherwise DefaultFontPaths.
func NewRenderer(fontPath string) *Renderer {
	paths := DefaultFontPaths
	if fontPath != "" {
		paths = []string{fontPath}
	}
	return &Renderer{fontPaths: paths}
}

func (r *Renderer) loadFont(pdf *gopdf.GoPdf) error {
	var fontErr error
	for _, path := range r.fontPaths {
		if err := pdf.AddTTFFont(fontName, path); err == nil {
			return nil
		} else {
			fontErr = err
		}
	}
	return fmt.Errorf("failed to load font for PDF, tried %s: %w", strings.Join(r.fontPaths, ", "), fontErr)
}

func (r *Renderer) RenderSession(s *analysis.Session) ([]byte, error) {
	rec, err := s.Recommendation()
	if err != nil {
		return nil, fmt.Errorf("decode analysis result: %w", err)
	}

	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()
	if err := r.loadFont(pdf); err != nil {
		return nil, err
	}

	p := &page{pdf: pdf}
	p.heading(20, "Symptom Triage Report")
	p.gap(10)

	p.font(11)
	p.line(fmt.Sprintf("Date: %s", s.CreatedAt.Format("02.01.2006 15:04")))
	p.line(fmt.Sprintf("Session: %s", s.ID))
	p.line(fmt.Sprintf("Age: %d   Gender: %s   Severity: %s", s.Age, orDash(s.Gender), s.Severity))
	if s.IsPregnant {
		p.line("Pregnant or might be pregnant")
	}
	p.gap(10)

	p.heading(14, "Reported symptoms")
	p.paragraph(s.SymptomsText)
	p.labelled("Onset", s.Onset)
	p.labelled("Duration", s.Duration)
	p.labelled("Existing conditions", s.ExistingConditions)
	p.labelled("Current medications", s.CurrentMedications)
	p.labelled("Allergies", s.Allergies)
	p.gap(10)

	p.heading(14, fmt.Sprintf("Triage: %s", strings.ToUpper(string(rec.TriageLevel))))
	p.paragraph(rec.TriageReason)
	p.gap(6)

	p.list("Possible conditions", rec.PossibleConditions)
	meds := make([]string, 0, len(rec.Recommendations.Medicines))
	for _, m := range rec.Recommendations.Medicines {
		meds = append(meds, fmt.Sprintf("%s, %s. %s", m.Name, m.Dose, m.Notes))
	}
	p.list("Over the counter options", meds)
	p.list("Home remedies", rec.Recommendations.HomeRemedies)
	p.list("What to do", rec.Recommendations.WhatToDo)
	p.list("What not to do", rec.Recommendations.WhatNotToDo)
	p.list("Dietary advice", rec.Recommendations.DietaryAdvice)
	p.labelled("Doctor to consult", rec.Recommendations.DoctorSpecialization)

	contacts := make([]string, 0, len(rec.Recommendations.EmergencyContacts))
	for _, c := range rec.Recommendations.EmergencyContacts {
		contacts = append(contacts, fmt.Sprintf("%s: %s (%s)", c.Service, c.Number, c.Description))
	}
	p.list("Emergency contacts", contacts)
	p.labelled("Follow up", rec.FollowUpAdvice)
	p.gap(10)

	p.font(9)
	disclaimer := rec.Disclaimer
	if disclaimer == "" {
		disclaimer = analysis.Disclaimer
	}
	p.paragraph(disclaimer)

	if p.err != nil {
		return nil, p.err
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// page keeps the first drawing error so callers can write straight through.
type page struct {
	pdf  *gopdf.GoPdf
	size float64
	err  error
}

func (p *page) font(size float64) {
	if p.err != nil {
		return
	}
	p.size = size
	p.err = p.pdf.SetFont(fontName, "", size)
}

func (p *page) heading(size float64, text string) {
	p.font(size)
	p.line(text)
	p.font(11)
}

func (p *page) line(text string) {
	if p.err != nil {
		return
	}
	if p.pdf.GetY() > pageBottom {
		p.pdf.AddPage()
	}
	p.err = p.pdf.Cell(nil, text)
	p.pdf.Br(p.size + 4)
}

func (p *page) paragraph(text string) {
	if p.err != nil || strings.TrimSpace(text) == "" {
		return
	}
	lines, err := p.pdf.SplitText(text, textWidth)
	if err != nil {
		p.err = err
		return
	}
	for _, l := range lines {
		p.line(l)
	}
}

func (p *page) labelled(label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	p.paragraph(label + ": " + value)
}

func (p *page) list(title string, items []string) {
	if len(items) == 0 {
		return
	}
	p.line(title + ":")
	for _, it := range items {
		p.paragraph("- " + it)
	}
	p.gap(4)
}

func (p *page) gap(h float64) {
	if p.err == nil {
		p.pdf.Br(h)
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// Notifier alerts the doctor chat about emergency triage results.
type Notifier struct {
	tgClient     TelegramClient
	doctorChatID int64
	renderer     *Renderer
	log          zerolog.Logger
}

func NewNotifier(tg TelegramClient, doctorChatID int64, renderer *Renderer, log zerolog.Logger) *Notifier {
	return &Notifier{
		tgClient:     tg,
		doctorChatID: doctorChatID,
		renderer:     renderer,
		log:          log,
	}
}

// NotifyEmergency sends a text alert and, when the PDF renders, the full
// report as a document. Only a failed text alert is an error.
func (n *Notifier) NotifyEmergency(ctx context.Context, s *analysis.Session, rec analysis.Recommendation) error {
	if err := n.tgClient.SendMessage(ctx, n.doctorChatID, alertText(s, rec)); err != nil {
		return fmt.Errorf("send emergency alert: %w", err)
	}

	if n.renderer == nil {
		return nil
	}
	pdf, err := n.renderer.RenderSession(s)
	if err != nil {
		n.log.Warn().Err(err).Str("session_id", s.ID.String()).Msg("emergency report not rendered")
		return nil
	}
	fileName := fmt.Sprintf("triage_%s.pdf", s.ID)
	if err := n.tgClient.SendDocument(ctx, n.doctorChatID, pdf, fileName, "Triage report"); err != nil {
		n.log.Warn().Err(err).Str("session_id", s.ID.String()).Msg("emergency report not delivered")
	}
	return nil
}

func alertText(s *analysis.Session, rec analysis.Recommendation) string {
	var b strings.Builder
	b.WriteString("EMERGENCY triage result\n")
	fmt.Fprintf(&b, "Time: %s\n", s.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Session: %s\n", s.ID)
	fmt.Fprintf(&b, "Age: %d, severity: %s\n", s.Age, s.Severity)
	fmt.Fprintf(&b, "Symptoms: %s\n", s.SymptomsText)
	if rec.TriageReason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", rec.TriageReason)
	}
	return b.String()
}
