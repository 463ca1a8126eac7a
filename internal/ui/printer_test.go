package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainPrinterOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewPlainPrinter(&buf)

	p.Banner(2, 5, "haproxy", "Configure the API load balancer")
	p.Done("haproxy")
	p.Skip("preparing")
	p.Warn("cluster unreachable: %s", "dial timeout")
	p.Error(errors.New("stage haproxy failed"))

	out := buf.String()
	assert.Contains(t, out, "Stage 2/5: haproxy")
	assert.Contains(t, out, "[OK] haproxy completed")
	assert.Contains(t, out, "[--] preparing skipped")
	assert.Contains(t, out, "[??] cluster unreachable: dial timeout")
	assert.Contains(t, out, "[!!] stage haproxy failed")
}

func TestPlainPrinterNoANSI(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewPlainPrinter(&buf)
	p.Done("kubespray")

	assert.NotContains(t, buf.String(), "\x1b[", "plain printer must not emit escape codes")
}
