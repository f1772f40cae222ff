package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// buildProgress renders a progress bar on stderr as exercises finish. The
// bar is created on the first report, once the target count is known.
type buildProgress struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func newBuildBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.CyanString("Building exercises")),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.CyanString("█"),
			SaucerHead:    color.CyanString("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Report matches pyexercise.ProgressFunc.
func (p *buildProgress) Report(target string, done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		p.bar = newBuildBar(total)
	}
	p.bar.Describe(color.CyanString("Building %s", target))
	p.bar.Add(1)
}

// Reset drops the bar so the next build starts a fresh one.
func (p *buildProgress) Reset() {
	p.mu.Lock()
	p.bar = nil
	p.mu.Unlock()
}
