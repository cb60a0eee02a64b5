// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package tracker

import (
	"fmt"
	"strings"
	"time"
)

// FormatDate renders a history timestamp the way the crews expect it:
// day.month hours:minutes.
func FormatDate(t time.Time) string {
	return t.Format("02.01 15:04")
}

// FormatReport renders the shift report text pasted into the faction forum.
// Categories and items with zero totals are omitted.
func FormatReport(cats []Category, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📅 Отчёт за %s\n", now.Format("02.01.2006"))
	b.WriteString("------------------\n")

	for _, cat := range cats {
		total := CategoryTotal(cat)
		if total == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s: %d pts\n", cat.Name, total)
		for _, item := range cat.Items {
			if item.Quantity > 0 {
				fmt.Fprintf(&b, "  • %s: %d шт (%d pts)\n", item.Name, item.Quantity, Subtotal(item))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("------------------\n")
	fmt.Fprintf(&b, "🏆 ИТОГО: %d очков", GrandTotal(cats))

	return b.String()
}
