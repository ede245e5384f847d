package viz

import (
	"fmt"
	"strings"

	"github.com/gronchi/reflectometry-analysis/internal/evolution"
	"github.com/gronchi/reflectometry-analysis/internal/fit"
	"github.com/gronchi/reflectometry-analysis/internal/storage"
)

// RenderFit formats a fit result as a bordered panel.
func RenderFit(res *fit.Result) string {
	var b strings.Builder
	b.WriteString(Title.Render("Fit: "+res.Model.Name()) + "\n\n")

	errs := res.ParamErrors()
	for i, name := range res.Model.ParamNames() {
		b.WriteString(Metric(name, fmt.Sprintf("%.4g ± %.2g", res.Params[i], errs[i])) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(Metric("n_max", fmt.Sprintf("%.4g ± %.2g m^-3", res.PeakDensity(), res.PeakUncertainty())) + "\n")
	b.WriteString(Metric("residual std", fmt.Sprintf("%.3g ns", res.ResidualStdDev()*1e9)) + "\n")
	b.WriteString(Metric("samples", fmt.Sprintf("%d", res.Used)) + "\n")
	b.WriteString(Metric("iterations", fmt.Sprintf("%d (%d evaluations)", res.Iterations, res.Evaluations)) + "\n")
	b.WriteString(Subtle.Render(res.Reason))

	return Panel.Render(b.String())
}

// RenderRun formats stored run metadata.
func RenderRun(meta *storage.RunMetadata) string {
	var b strings.Builder
	b.WriteString(Title.Render(fmt.Sprintf("Run %s", meta.ID)) + "\n\n")
	b.WriteString(Metric("kind", meta.Kind) + "\n")
	b.WriteString(Metric("model", meta.Model) + "\n")
	b.WriteString(Metric("device", meta.Device) + "\n")
	b.WriteString(Metric("created", meta.Timestamp.Format("2006-01-02 15:04:05")) + "\n")
	b.WriteString(Metric("geometry", fmt.Sprintf("a=%.3g m, Rwall=%.3g m", meta.Geometry.MinorRadius, meta.Geometry.WallRadius)) + "\n")

	switch meta.Kind {
	case storage.KindFit:
		b.WriteString("\n")
		for i, name := range meta.ParamNames {
			v := fmt.Sprintf("%.4g", meta.Params[i])
			if i < len(meta.ParamErrors) {
				v += fmt.Sprintf(" ± %.2g", meta.ParamErrors[i])
			}
			b.WriteString(Metric(name, v) + "\n")
		}
		b.WriteString(Metric("n_max", fmt.Sprintf("%.4g ± %.2g m^-3", meta.PeakDensity, meta.PeakUncertainty)) + "\n")
		b.WriteString(Metric("residual std", fmt.Sprintf("%.3g ns", meta.ResidualStd*1e9)))
	case storage.KindEvolution:
		if meta.Summary != nil {
			b.WriteString("\n" + RenderSummary(*meta.Summary))
		}
	}
	return Panel.Render(b.String())
}

// RenderSummary formats evolution counters.
func RenderSummary(sum evolution.Summary) string {
	skipped := fmt.Sprintf("%d", sum.Skipped)
	if sum.Skipped > 0 {
		skipped = StatusWarn.Render(skipped)
	}
	missing := fmt.Sprintf("%d", sum.Missing)
	if sum.Missing > 0 {
		missing = StatusWarn.Render(missing)
	}
	return strings.Join([]string{
		Metric("requested", fmt.Sprintf("%d", sum.Requested)),
		Metric("recorded", StatusOK.Render(fmt.Sprintf("%d", sum.Recorded))),
		Metric("not converged", skipped),
		Metric("missing", missing),
	}, "\n")
}

// RenderRunList formats one line per run.
func RenderRunList(runs []storage.RunMetadata) string {
	if len(runs) == 0 {
		return Subtle.Render("no runs stored")
	}
	var b strings.Builder
	for _, r := range runs {
		detail := ""
		if r.Kind == storage.KindFit {
			detail = fmt.Sprintf("n_max=%.3g", r.PeakDensity)
		} else if r.Summary != nil {
			detail = fmt.Sprintf("%d points", r.Summary.Recorded)
		}
		fmt.Fprintf(&b, "%s  %s  %-10s %-16s %s\n",
			Title.Render(r.ID),
			Subtle.Render(r.Timestamp.Format("2006-01-02 15:04")),
			r.Kind, r.Model, detail)
	}
	return strings.TrimRight(b.String(), "\n")
}
