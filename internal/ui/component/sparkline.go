package component

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/pumpfun-watcher/internal/ui/style"
)

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline represents a mini graph of recent prices
type Sparkline struct {
	data  []float64
	width int
	style lipgloss.Style
	color lipgloss.Color
}

// NewSparkline creates a new sparkline component
func NewSparkline(width int) *Sparkline {
	if width <= 0 {
		width = 1
	}
	return &Sparkline{
		data:  make([]float64, 0, width),
		width: width,
		style: lipgloss.NewStyle(),
		color: style.DefaultPalette().Primary,
	}
}

// Push adds a new data point, keeping only the last width points
func (s *Sparkline) Push(value float64) *Sparkline {
	s.data = append(s.data, value)
	if len(s.data) > s.width {
		s.data = s.data[len(s.data)-s.width:]
	}
	return s
}

// Len returns the number of stored points
func (s *Sparkline) Len() int {
	return len(s.data)
}

// SetWidth sets the width of the sparkline
func (s *Sparkline) SetWidth(width int) *Sparkline {
	if width <= 0 {
		width = 1
	}
	s.width = width
	if len(s.data) > width {
		s.data = s.data[len(s.data)-width:]
	}
	return s
}

// SetColor sets the color for the sparkline
func (s *Sparkline) SetColor(color lipgloss.Color) *Sparkline {
	s.color = color
	return s
}

// View renders the sparkline with a trend arrow
func (s *Sparkline) View() string {
	blocks := s.Blocks()
	if len(s.data) == 0 {
		return style.MutedStyle.Render(blocks)
	}

	rendered := s.style.Foreground(s.color).Render(blocks)
	switch s.Trend() {
	case 1:
		return rendered + " " + style.UpStyle.Render("↗")
	case -1:
		return rendered + " " + style.DownStyle.Render("↘")
	default:
		return rendered + " " + style.MutedStyle.Render("→")
	}
}

// Blocks returns the unstyled spark characters, padded to width.
func (s *Sparkline) Blocks() string {
	if len(s.data) == 0 {
		return strings.Repeat("▁", s.width)
	}

	min, max := s.minMax()

	var b strings.Builder
	for _, value := range s.data {
		index := len(sparkChars) / 2
		if max > min {
			index = int((value - min) / (max - min) * float64(len(sparkChars)-1))
		}
		b.WriteRune(sparkChars[index])
	}
	if pad := s.width - len(s.data); pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	return b.String()
}

func (s *Sparkline) minMax() (float64, float64) {
	min, max := s.data[0], s.data[0]
	for _, value := range s.data {
		if value < min {
			min = value
		}
		if value > max {
			max = value
		}
	}
	return min, max
}

// Trend compares the last two points: 1 up, -1 down, 0 flat.
func (s *Sparkline) Trend() int {
	if len(s.data) < 2 {
		return 0
	}
	current, prev := s.data[len(s.data)-1], s.data[len(s.data)-2]
	switch {
	case current > prev:
		return 1
	case current < prev:
		return -1
	default:
		return 0
	}
}

// ChangePercent returns the change from the first to the last point
func (s *Sparkline) ChangePercent() float64 {
	if len(s.data) < 2 || s.data[0] == 0 {
		return 0
	}
	first, last := s.data[0], s.data[len(s.data)-1]
	return (last - first) / first * 100
}
