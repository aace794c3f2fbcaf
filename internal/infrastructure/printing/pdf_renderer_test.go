package printing

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneflow/backend/internal/domain/finance"
)

func TestPDFRenderer_RenderDocument(t *testing.T) {
	doc, err := finance.NewDocument(finance.DocumentTypeInvoice, "INV-2025-001", "Müller GmbH", "Website")
	require.NoError(t, err)
	item, err := finance.NewLineItem("Design", "", "hour", decimal.NewFromInt(5), decimal.NewFromInt(85000), decimal.NewFromInt(18))
	require.NoError(t, err)
	doc.AddItem(*item)
	due := time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)
	doc.RelevantDate = &due
	doc.Notes = "Net 30"

	out, err := NewPDFRenderer("OneFlow Ltd").RenderDocument(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Greater(t, len(out), 500)
}

func TestPDFRenderer_RenderRequest(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	req, err := finance.NewDocumentRequest("REQ-2025-004", "bob", finance.RequestDocumentTypeReceipt,
		"Website", decimal.RequireFromString("42.50"), "Team lunch", now)
	require.NoError(t, err)
	require.NoError(t, req.Approve(finance.Actor{Username: "pat", Role: finance.RoleProjectManager}, now))

	out, err := NewPDFRenderer("").RenderRequest(req)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}
