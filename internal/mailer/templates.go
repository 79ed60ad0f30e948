package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the template store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type tplDefault struct {
	subject string
	body    string
}

// Default records created on first use when the named template is missing
// from the database (self-heal, operators can edit the row afterwards).
var defaults = map[string]tplDefault{
	"promotion_started": {
		subject: "Promoção iniciada: {{.Name}}",
		body:    `<p>A promoção <strong>{{.Name}}</strong> está disponível desde {{.StartDate}} até {{.EndDate}}.</p>`,
	},
	"promotion_ended": {
		subject: "Promoção encerrada: {{.Name}}",
		body:    `<p>A promoção <strong>{{.Name}}</strong> foi encerrada em {{.EndDate}}.</p>`,
	},
}

var ErrUnknownTemplate = errors.New("unknown email template")

// TemplateStore reads email templates from the database and renders them with
// html/template (body) and text/template (subject).
type TemplateStore struct{ DB DB }

func (t *TemplateStore) Render(ctx context.Context, name string, data map[string]any) (string, string, error) {
	subject, body, err := t.fetch(ctx, name)
	if err != nil {
		return "", "", err
	}

	subj, err := renderText(name+":subject", subject, data)
	if err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", name, err)
	}
	html, err := renderHTML(name+":body", body, data)
	if err != nil {
		return "", "", fmt.Errorf("render %s body: %w", name, err)
	}
	return subj, html, nil
}

func (t *TemplateStore) fetch(ctx context.Context, name string) (string, string, error) {
	var subject, body string
	err := t.DB.QueryRow(ctx,
		`SELECT subject, body FROM email_templates WHERE name=$1`, name,
	).Scan(&subject, &body)
	if err == nil {
		return subject, body, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", "", fmt.Errorf("fetch template %s: %w", name, err)
	}

	// missing record: recreate the default instead of failing the sweep
	def, ok := defaults[name]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	if _, err := t.DB.Exec(ctx,
		`INSERT INTO email_templates(name, subject, body) VALUES ($1,$2,$3)
		 ON CONFLICT (name) DO NOTHING`,
		name, def.subject, def.body); err != nil {
		return "", "", fmt.Errorf("restore template %s: %w", name, err)
	}
	return def.subject, def.body, nil
}

func renderText(name, src string, data map[string]any) (string, error) {
	tpl, err := texttemplate.New(name).Parse(src)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderHTML(name, src string, data map[string]any) (string, error) {
	tpl, err := htmltemplate.New(name).Parse(src)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
