package email

import (
	"bytes"
	"html/template"
	"log"
)

// TemplateManager holds the parsed email templates.
type TemplateManager struct {
	OrderEventTmpl *template.Template
}

// NewTemplateManager parses all email templates at startup.
func NewTemplateManager() (*TemplateManager, error) {
	orderEventTmpl, err := template.New("orderEvent").Parse(orderEventTemplate)
	if err != nil {
		return nil, err
	}

	log.Println("Email templates parsed successfully.")
	return &TemplateManager{
		OrderEventTmpl: orderEventTmpl,
	}, nil
}

// OrderEventData holds the dynamic data for a lifecycle notification email.
type OrderEventData struct {
	Name       string
	Headline   string
	Detail     string
	OrderID    int64
	ProductRef string
	Link       string
}

// GenerateOrderEventEmailHTML executes the lifecycle template with the
// provided data.
func (tm *TemplateManager) GenerateOrderEventEmailHTML(data OrderEventData) (string, error) {
	var body bytes.Buffer
	if err := tm.OrderEventTmpl.Execute(&body, data); err != nil {
		return "", err
	}
	return body.String(), nil
}

// --- HTML Template Definitions ---

const orderEventTemplate = `
<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Headline}}</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; margin: 0; padding: 20px;">
  <div style="max-width: 600px; margin: auto; background: #ffffff; border-radius: 8px; padding: 24px;">
    <h2 style="color: #2c3e50;">{{.Headline}}</h2>
    <p>Hola {{.Name}},</p>
    <p>{{.Detail}}</p>
    <p style="color: #555;">Pedido #{{.OrderID}} &mdash; {{.ProductRef}}</p>
    <p style="margin: 24px 0;">
      <a href="{{.Link}}" style="background-color: #27ae60; color: #ffffff; padding: 12px 24px; text-decoration: none; border-radius: 4px;">
        Ver pedido
      </a>
    </p>
    <p style="font-size: 12px; color: #999;">
      Este es un mensaje autom&aacute;tico de CorralX. El estado del pedido en la plataforma es siempre la fuente de verdad.
    </p>
  </div>
</body>
</html>
`
