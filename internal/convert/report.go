// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"

	"github.com/pdiddy/doc-reader/pkg/types"
)

const (
	kib = 1024
	mib = 1024 * kib
)

// Compare reports how the UTF-8 size of text relates to originalBytes.
// PercentDelta is 0 when originalBytes is 0.
func Compare(originalBytes int64, text string) types.SizeReport {
	converted := int64(len(text))
	r := types.SizeReport{OriginalBytes: originalBytes, ConvertedBytes: converted}
	if originalBytes > 0 {
		r.PercentDelta = float64(originalBytes-converted) / float64(originalBytes) * 100
	}
	return r
}

// FormatSize renders n bytes as B below 1 KiB, KB below 1 MiB and MB above,
// with two decimals for the scaled units.
func FormatSize(n int64) string {
	switch {
	case n < kib:
		return fmt.Sprintf("%d B", n)
	case n < mib:
		return fmt.Sprintf("%.2f KB", float64(n)/kib)
	default:
		return fmt.Sprintf("%.2f MB", float64(n)/mib)
	}
}

// FormatReport renders r as a single metrics line.
func FormatReport(r types.SizeReport) string {
	delta := r.PercentDelta
	if delta < 0 {
		delta = -delta
	}
	return fmt.Sprintf("original %s, converted %s (%.1f%% %s)",
		FormatSize(r.OriginalBytes), FormatSize(r.ConvertedBytes), delta, r.Direction())
}
