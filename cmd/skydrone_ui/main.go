package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"io"
	"log"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/cbegin/skydrone-go"
	"github.com/cbegin/skydrone-go/internal/effects"
	"github.com/cbegin/skydrone-go/internal/observation"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	windowW      = 1100
	windowH      = 720
	minWindowW   = 980
	minWindowH   = 680
	uiSampleRate = 48000

	textScale = 2
	charW     = 7 * textScale
	lineH     = 14 * textScale

	fftSize = 2048
)

var (
	bgColor     = color.RGBA{192, 192, 192, 255}
	panelColor  = color.RGBA{192, 192, 192, 255}
	borderColor = color.RGBA{128, 128, 128, 255}

	// 3D bevel colors for old-school embossed look.
	bevelLight  = color.RGBA{255, 255, 255, 255}
	bevelDarker = color.RGBA{64, 64, 64, 255}

	// Sunken panel interior.
	sunkenBgColor = color.RGBA{24, 24, 32, 255}

	sliderFillColor = color.RGBA{0, 0, 128, 255}
	skyGridColor    = color.RGBA{40, 48, 72, 255}
	liveColor       = color.RGBA{255, 200, 80, 255}
	aimColor        = color.RGBA{80, 200, 255, 255}
)

// control identifies what the mouse is dragging.
type control int

const (
	ctlNone control = iota
	ctlMacro
	ctlRoot
	ctlEQ
	ctlSky
)

type macroSlider struct {
	label string
	value float64
	set   func(float64)
}

type game struct {
	session  *skydrone.Session
	analyzer *effects.Analyzer
	spectrum *effects.Spectrum
	scopeImg *ebiten.Image
	scopeW   int
	scopeH   int
	// Smoothed spectrum bins for display (log-magnitude, 0..1 range).
	specBins []float64
	wavePeak float64

	macros  []macroSlider
	root    int
	modeIdx int
	modes   []string
	eqGains [5]float64 // 0..2 range, 1.0 = unity

	dragging   control
	dragMacro  int
	draggingEQ int

	playing bool

	status    string
	statusErr bool

	textCache map[string]*ebiten.Image
	viewW     int
	viewH     int
}

func newGame(opts []skydrone.Option) (*game, error) {
	a := effects.NewAnalyzer(fftSize * 2)
	opts = append(opts, skydrone.WithSampleRate(uiSampleRate), skydrone.WithSampleTap(a.Tap))
	s, err := skydrone.NewSession(opts...)
	if err != nil {
		return nil, err
	}

	g := &game{
		session:    s,
		analyzer:   a,
		spectrum:   effects.NewSpectrum(fftSize),
		modes:      skydrone.ChordModes(),
		eqGains:    [5]float64{1, 1, 1, 1, 1},
		draggingEQ: -1,
		status:     "Ready",
		textCache:  make(map[string]*ebiten.Image, 1024),
		viewW:      windowW,
		viewH:      windowH,
	}
	m := s.Status().Macros
	g.macros = []macroSlider{
		{"Volume", m.Volume, s.SetVolume},
		{"Space", m.Space, s.SetSpace},
		{"Colour", m.Colour, s.SetColour},
		{"Scatter", m.Scatter, s.SetScatter},
		{"Pulse", m.Pulse, s.SetPulse},
		{"Zoom", m.Zoom, s.SetZoom},
	}
	g.root = m.Root
	for i, name := range g.modes {
		if name == m.Mode {
			g.modeIdx = i
		}
	}
	return g, nil
}

func (g *game) Update() error {
	g.handleMouse()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)

	l := g.layoutRects()
	st := g.session.Status()

	g.drawDarkPanel(screen, l.sky)
	g.drawSunkenPanel(screen, l.info)
	g.drawDarkPanel(screen, l.spectrum)
	g.drawPanel(screen, l.eq)
	g.drawSunkenPanel(screen, l.status)

	g.drawSky(screen, l.sky, st)
	g.drawInfo(screen, l.info, st)
	g.drawSpectrum(screen, l.spectrum)
	for i, r := range l.macros {
		g.drawSlider(screen, r, fmt.Sprintf("%s %d%%", g.macros[i].label, int(g.macros[i].value*100+0.5)), g.macros[i].value)
	}
	g.drawSlider(screen, l.root, fmt.Sprintf("Root %+d", g.root), float64(g.root+12)/24)
	g.drawButton(screen, l.mode, g.modes[g.modeIdx])
	g.drawButton(screen, l.play, g.playButtonLabel())
	g.drawEQ(screen, l.eq)
	g.drawStatus(screen, l.status)
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	if outsideW < minWindowW {
		outsideW = minWindowW
	}
	if outsideH < minWindowH {
		outsideH = minWindowH
	}
	g.viewW = outsideW
	g.viewH = outsideH
	return outsideW, outsideH
}

func (g *game) Close() { _ = g.session.Close() }

func (g *game) handleMouse() {
	mx, my := ebiten.CursorPosition()
	l := g.layoutRects()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		switch {
		case pointInRect(mx, my, l.play):
			g.togglePlayback()
			return
		case pointInRect(mx, my, l.mode):
			g.cycleMode()
			return
		case pointInRect(mx, my, l.root):
			g.dragging = ctlRoot
		case pointInRect(mx, my, l.eq):
			if band := g.eqBandFromMouse(mx, l.eq); band >= 0 {
				g.dragging = ctlEQ
				g.draggingEQ = band
			}
		case pointInRect(mx, my, l.sky):
			g.dragging = ctlSky
		default:
			for i, r := range l.macros {
				if pointInRect(mx, my, r) {
					g.dragging = ctlMacro
					g.dragMacro = i
				}
			}
		}
	}

	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		switch g.dragging {
		case ctlMacro:
			g.updateMacroFromMouse(mx, l.macros[g.dragMacro])
		case ctlRoot:
			g.updateRootFromMouse(mx, l.root)
		case ctlEQ:
			g.dragEQ(my, l.eq)
		case ctlSky:
			g.aimFromMouse(mx, my, l.sky)
		}
	}

	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		if g.dragging == ctlSky {
			g.session.EndAim()
			g.setStatus("Returning to live observation")
		}
		g.dragging = ctlNone
		g.draggingEQ = -1
	}
}

type uiLayout struct {
	sky      image.Rectangle
	info     image.Rectangle
	spectrum image.Rectangle
	macros   []image.Rectangle
	root     image.Rectangle
	mode     image.Rectangle
	play     image.Rectangle
	eq       image.Rectangle
	status   image.Rectangle
}

func (g *game) layoutRects() uiLayout {
	const pad = 12
	const rowH = 34
	w, h := g.viewW, g.viewH

	var l uiLayout
	l.status = image.Rect(pad, h-pad-36, w-pad, h-pad)

	leftW := int(float64(w) * 0.42)
	l.sky = image.Rect(pad, pad, pad+leftW, pad+int(float64(h)*0.5))
	l.info = image.Rect(pad, l.sky.Max.Y+pad, pad+leftW, l.status.Min.Y-pad)

	x0 := l.sky.Max.X + pad
	x1 := w - pad
	l.spectrum = image.Rect(x0, pad, x1, pad+180)
	y := l.spectrum.Max.Y + pad
	for range g.macros {
		l.macros = append(l.macros, image.Rect(x0, y, x1, y+rowH))
		y += rowH + 4
	}
	third := (x1 - x0) / 3
	l.root = image.Rect(x0, y, x1-third, y+rowH)
	l.mode = image.Rect(x1-third+pad, y, x1, y+rowH)
	y += rowH + pad
	l.play = image.Rect(x0, y, x0+third, y+40)
	l.eq = image.Rect(x0+third+pad, y, x1, l.status.Min.Y-pad)
	return l
}

// skyPoint maps RA (0..360, left to right) and Dec (+90 top, -90 bottom)
// into rect.
func skyPoint(ra, dec float64, rect image.Rectangle) (float64, float64) {
	x := float64(rect.Min.X) + clamp(ra, 0, 360)/360*float64(rect.Dx())
	y := float64(rect.Min.Y) + (90-clamp(dec, -90, 90))/180*float64(rect.Dy())
	return x, y
}

func (g *game) aimFromMouse(mx, my int, rect image.Rectangle) {
	ra := clamp(float64(mx-rect.Min.X)/float64(rect.Dx()), 0, 1) * 360
	dec := 90 - clamp(float64(my-rect.Min.Y)/float64(rect.Dy()), 0, 1)*180
	g.session.Aim(ra, dec)
	g.setStatus(fmt.Sprintf("Aim RA %.1f Dec %+.1f", ra, dec))
}

func (g *game) drawSky(screen *ebiten.Image, rect image.Rectangle, st skydrone.Status) {
	for ra := 60.0; ra < 360; ra += 60 {
		x, _ := skyPoint(ra, 0, rect)
		ebitenutil.DrawRect(screen, x, float64(rect.Min.Y+2), 1, float64(rect.Dy()-4), skyGridColor)
	}
	for dec := -60.0; dec <= 60; dec += 30 {
		_, y := skyPoint(0, dec, rect)
		ebitenutil.DrawRect(screen, float64(rect.Min.X+2), y, float64(rect.Dx()-4), 1, skyGridColor)
	}

	o := st.Observation
	if o.TargetName != "" && !math.IsNaN(o.RA) && !math.IsNaN(o.Dec) {
		// The marker swells with the output level.
		r := 3 + math.Min(g.session.OutputLevel()*80, 12)
		x, y := skyPoint(o.RA, o.Dec, rect)
		ebitenutil.DrawRect(screen, x-r, y-r, 2*r, 2*r, liveColor)
	}
	if g.session.Aiming() {
		mx, my := ebiten.CursorPosition()
		if pointInRect(mx, my, rect) {
			ebitenutil.DrawRect(screen, float64(mx-10), float64(my), 21, 1, aimColor)
			ebitenutil.DrawRect(screen, float64(mx), float64(my-10), 1, 21, aimColor)
		}
	}
	g.drawText(screen, "Sky", rect.Min.X+8, rect.Min.Y+6)
}

func (g *game) drawInfo(screen *ebiten.Image, rect image.Rectangle, st skydrone.Status) {
	o := st.Observation
	source := "live"
	if g.session.Aiming() {
		source = "aim"
	}
	lines := []string{
		"Target: " + o.TargetName,
		"Instr:  " + o.Instrument + " " + o.Filter,
		"Type:   " + o.TargetType,
		fmt.Sprintf("Cutoff: %.0f Hz  Q %.1f", st.Cutoff, st.Resonance),
		fmt.Sprintf("Wet %.2f  Voices %d  (%s)", st.Wet, st.Data.HarmonicActiveCount, source),
		fmt.Sprintf("Comp %.1f dB", 20*math.Log10(math.Max(float64(st.GainReduction), 1e-4))),
	}
	maxChars := max(8, (rect.Dx()-16)/charW)
	y := rect.Min.Y + 8
	for _, line := range lines {
		if y+lineH > rect.Max.Y-20 {
			break
		}
		g.drawText(screen, shortenEnd(line, maxChars), rect.Min.X+8, y)
		y += lineH
	}

	// Level meter along the bottom edge.
	meterW := float64(rect.Dx()-16) * math.Min(g.session.OutputLevel()*4, 1)
	ebitenutil.DrawRect(screen, float64(rect.Min.X+8), float64(rect.Max.Y-16), meterW, 8, sliderFillColor)
}

func (g *game) drawSpectrum(screen *ebiten.Image, rect image.Rectangle) {
	inner := image.Rect(rect.Min.X+8, rect.Min.Y+8, rect.Max.X-8, rect.Max.Y-8)
	width := inner.Dx()
	height := inner.Dy()
	if width <= 0 || height <= 0 {
		return
	}

	if g.scopeImg == nil || g.scopeW != width || g.scopeH != height {
		g.scopeW = width
		g.scopeH = height
		g.scopeImg = ebiten.NewImage(width, height)
	}
	g.scopeImg.Fill(color.RGBA{14, 16, 22, 255})

	snap := g.analyzer.Snapshot(fftSize)

	// Waveform (top 45%).
	waveH := int(float64(height) * 0.45)
	g.drawWaveform(g.scopeImg, snap, width, waveH)

	ebitenutil.DrawRect(g.scopeImg, 0, float64(waveH), float64(width), 1, color.RGBA{50, 54, 68, 180})

	// Spectrum analyzer (bottom 55%).
	specY := waveH + 1
	g.drawSpectrumBars(g.scopeImg, snap, width, height-specY, specY)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(inner.Min.X), float64(inner.Min.Y))
	screen.DrawImage(g.scopeImg, op)
}

func (g *game) drawWaveform(dst *ebiten.Image, samples []float32, width int, height int) {
	if len(samples) < 2 || width < 2 || height < 4 {
		return
	}
	midY := height / 2
	ebitenutil.DrawRect(dst, 0, float64(midY), float64(width), 1, color.RGBA{40, 44, 58, 100})

	// Auto-gain: fast attack, slow release.
	var peak float32
	for _, s := range samples {
		peak = max(peak, s, -s)
	}
	target := math.Max(float64(peak), 0.01)
	if target > g.wavePeak {
		g.wavePeak = g.wavePeak*0.3 + target*0.7
	} else {
		g.wavePeak = g.wavePeak*0.995 + target*0.005
	}
	g.wavePeak = math.Max(g.wavePeak, 0.01)
	gain := float64(midY-2) / g.wavePeak

	// A drone has no useful trigger point, so draw the newest samples as is.
	waveColor := color.RGBA{80, 200, 255, 220}
	prevY := midY - int(float64(samples[0])*gain)
	for px := 1; px < width; px++ {
		si := min(px*len(samples)/width, len(samples)-1)
		y := midY - int(float64(samples[si])*gain)
		ebitenutil.DrawLine(dst, float64(px-1), float64(prevY), float64(px), float64(y), waveColor)
		prevY = y
	}
}

func (g *game) drawSpectrumBars(dst *ebiten.Image, samples []float32, width int, height int, yOffset int) {
	if width < 4 || height < 4 {
		return
	}
	mags := g.spectrum.Magnitudes(samples)

	numBars := min(max(width/3, 16), 256)
	if len(g.specBins) != numBars {
		g.specBins = make([]float64, numBars)
	}

	// The drone lives low, so the scale stops at 8 kHz.
	halfFFT := len(mags) - 1
	maxBin := min(halfFFT*8000/(uiSampleRate/2), halfFFT)
	logMin := 0.0
	logMax := math.Log(float64(maxBin))

	for i := 0; i < numBars; i++ {
		frac0 := float64(i) / float64(numBars)
		frac1 := float64(i+1) / float64(numBars)
		binStart := int(math.Exp(logMin + frac0*(logMax-logMin)))
		binEnd := min(max(int(math.Exp(logMin+frac1*(logMax-logMin))), binStart+1), halfFFT)

		sum := 0.0
		for b := binStart; b < binEnd; b++ {
			sum += mags[b]
		}
		avg := sum / float64(max(binEnd-binStart, 1))

		// -80 dB .. 0 dB.
		db := 20.0 * math.Log10(avg+1e-10)
		norm := clamp((db+80.0)/80.0, 0, 1)

		prev := g.specBins[i]
		if norm > prev {
			g.specBins[i] = prev*0.3 + norm*0.7
		} else {
			g.specBins[i] = prev*0.85 + norm*0.15
		}
	}

	barW := float64(width) / float64(numBars)
	for i, v := range g.specBins {
		barH := math.Max(v*float64(height-4), 1)
		x := float64(i) * barW
		y := float64(yOffset) + float64(height-2) - barH
		r, gr, b := spectrumColor(v)
		ebitenutil.DrawRect(dst, x+1, y, barW-1, barH, color.RGBA{r, gr, b, 220})
	}
}

func spectrumColor(v float64) (uint8, uint8, uint8) {
	if v < 0.33 {
		t := v / 0.33
		return uint8(30 + 20*t), uint8(80 + 120*t), uint8(200 + 55*t)
	}
	if v < 0.66 {
		t := (v - 0.33) / 0.33
		return uint8(50 + 140*t), uint8(200 + 30*t), uint8(255 - 100*t)
	}
	t := (v - 0.66) / 0.34
	return uint8(190 + 65*t), uint8(230 - 100*t), uint8(155 - 100*t)
}

func (g *game) drawStatus(screen *ebiten.Image, rect image.Rectangle) {
	msg := "Status: " + g.status
	if g.statusErr {
		msg = "Status: ERROR - " + g.status
	}
	maxChars := max(8, (rect.Dx()-16)/charW)
	g.drawText(screen, shortenEnd(msg, maxChars), rect.Min.X+8, rect.Min.Y+6)
}

const sliderLabelW = 190

func sliderTrack(rect image.Rectangle) (x, w int) {
	return rect.Min.X + sliderLabelW, rect.Dx() - sliderLabelW - 16
}

func (g *game) drawSlider(screen *ebiten.Image, rect image.Rectangle, label string, frac float64) {
	g.drawPanel(screen, rect)
	g.drawText(screen, label, rect.Min.X+8, rect.Min.Y+(rect.Dy()-lineH)/2)

	trackX, trackW := sliderTrack(rect)
	trackY := rect.Min.Y + rect.Dy()/2 - 4
	if trackW < 20 {
		return
	}
	// Sunken track groove.
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), float64(trackW), 8, bevelDarker)
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), float64(trackW-1), 1, borderColor)
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), 1, 7, borderColor)
	fillW := int(float64(trackW) * clamp(frac, 0, 1))
	if fillW > 2 {
		ebitenutil.DrawRect(screen, float64(trackX+1), float64(trackY+1), float64(fillW-1), 6, sliderFillColor)
	}
	// Raised knob.
	knobX := min(max(trackX+fillW-5, trackX-5), trackX+trackW-5)
	knobRect := image.Rect(knobX, trackY-4, knobX+10, trackY+12)
	ebitenutil.DrawRect(screen, float64(knobRect.Min.X), float64(knobRect.Min.Y), float64(knobRect.Dx()), float64(knobRect.Dy()), panelColor)
	drawBorder(screen, knobRect)
}

func sliderValue(mx int, rect image.Rectangle) (float64, bool) {
	trackX, trackW := sliderTrack(rect)
	if trackW <= 0 {
		return 0, false
	}
	return clamp(float64(mx-trackX)/float64(trackW), 0, 1), true
}

func (g *game) updateMacroFromMouse(mx int, rect image.Rectangle) {
	v, ok := sliderValue(mx, rect)
	if !ok {
		return
	}
	m := &g.macros[g.dragMacro]
	m.value = v
	m.set(v)
	g.setStatus(fmt.Sprintf("%s: %d%%", m.label, int(v*100+0.5)))
}

func (g *game) updateRootFromMouse(mx int, rect image.Rectangle) {
	v, ok := sliderValue(mx, rect)
	if !ok {
		return
	}
	root := int(math.Round(v*24)) - 12
	if root != g.root {
		g.root = root
		g.session.SetChord(g.root, g.modes[g.modeIdx])
	}
	g.setStatus(fmt.Sprintf("Root: %+d", g.root))
}

func (g *game) cycleMode() {
	g.modeIdx = (g.modeIdx + 1) % len(g.modes)
	g.session.SetChord(g.root, g.modes[g.modeIdx])
	g.setStatus("Chord: " + g.modes[g.modeIdx])
}

var eqBandLabels = [5]string{"Lo", "LoM", "Mid", "HiM", "Hi"}

func (g *game) drawEQ(screen *ebiten.Image, rect image.Rectangle) {
	numBands := 5
	pad := 8
	labelH := 4
	innerX := rect.Min.X + pad
	innerW := rect.Dx() - pad*2
	innerY := rect.Min.Y + labelH
	innerH := rect.Dy() - labelH - pad

	bandW := innerW / numBands
	if bandW < 10 {
		return
	}

	for i := 0; i < numBands; i++ {
		bx := innerX + i*bandW
		by := innerY
		bw := bandW - 4
		bh := innerH

		ebitenutil.DrawRect(screen, float64(bx+bw/2-2), float64(by), 4, float64(bh), bevelDarker)

		// Center line (gain = 1.0).
		centerY := by + bh/2
		ebitenutil.DrawRect(screen, float64(bx), float64(centerY), float64(bw), 1, borderColor)

		// Knob: map gain 0..2 to bottom..top.
		frac := clamp(g.eqGains[i]/2.0, 0, 1)
		knobY := by + bh - int(frac*float64(bh)) - 4

		knobRect := image.Rect(bx+2, knobY, bx+bw-2, knobY+8)
		ebitenutil.DrawRect(screen, float64(knobRect.Min.X), float64(knobRect.Min.Y), float64(knobRect.Dx()), float64(knobRect.Dy()), panelColor)
		drawBorder(screen, knobRect)
	}
}

func (g *game) dragEQ(my int, rect image.Rectangle) {
	band := g.draggingEQ
	if band < 0 || band >= 5 {
		return
	}
	pad := 8
	labelH := 4
	innerY := rect.Min.Y + labelH
	innerH := rect.Dy() - labelH - pad
	if innerH <= 0 {
		return
	}
	// Map y position to gain: top = 2.0, bottom = 0.0.
	frac := 1.0 - clamp(float64(my-innerY)/float64(innerH), 0, 1)
	gain := frac * 2.0
	g.eqGains[band] = gain
	g.session.SetEQBand(band, float32(gain))
	g.setStatus(fmt.Sprintf("EQ %s: %.1f", eqBandLabels[band], gain))
}

func (g *game) eqBandFromMouse(mx int, rect image.Rectangle) int {
	pad := 8
	innerX := rect.Min.X + pad
	innerW := rect.Dx() - pad*2
	numBands := 5
	bandW := innerW / numBands
	if bandW <= 0 {
		return -1
	}
	idx := (mx - innerX) / bandW
	if idx < 0 || idx >= numBands {
		return -1
	}
	return idx
}

func (g *game) togglePlayback() {
	if g.playing {
		if err := g.session.Stop(); err != nil {
			g.setError(err.Error())
			return
		}
		g.playing = false
		g.setStatus("Stopped")
		return
	}
	if err := g.session.Start(); err != nil {
		g.setError(err.Error())
		return
	}
	g.playing = true
	g.setStatus("Playing")
}

func (g *game) playButtonLabel() string {
	if g.playing {
		return "Stop"
	}
	return "Play"
}

func (g *game) setError(msg string) {
	g.status = msg
	g.statusErr = true
}

func (g *game) setStatus(msg string) {
	g.status = msg
	g.statusErr = false
}

func (g *game) drawPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), panelColor)
	drawBorder(screen, rect)
}

func (g *game) drawSunkenPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), sunkenBgColor)
	drawSunkenBorder(screen, rect)
}

func (g *game) drawDarkPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), color.RGBA{0, 0, 0, 255})
	drawSunkenBorder(screen, rect)
}

func (g *game) drawButton(screen *ebiten.Image, rect image.Rectangle, label string) {
	g.drawPanel(screen, rect)
	labelW := len([]rune(label)) * charW
	x := rect.Min.X + (rect.Dx()-labelW)/2
	y := rect.Min.Y + (rect.Dy()-lineH)/2
	g.drawText(screen, label, x, y)
}

// drawBorder draws a raised 3D bevel (highlight top/left, shadow bottom/right).
func drawBorder(screen *ebiten.Image, rect image.Rectangle) {
	x := float64(rect.Min.X)
	y := float64(rect.Min.Y)
	w := float64(rect.Dx())
	h := float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, bevelLight)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, bevelLight)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelDarker)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelDarker)
	ebitenutil.DrawRect(screen, x+1, y+h-2, w-3, 1, borderColor)
	ebitenutil.DrawRect(screen, x+w-2, y+1, 1, h-3, borderColor)
}

// drawSunkenBorder draws a sunken 3D bevel (shadow top/left, highlight bottom/right).
func drawSunkenBorder(screen *ebiten.Image, rect image.Rectangle) {
	x := float64(rect.Min.X)
	y := float64(rect.Min.Y)
	w := float64(rect.Dx())
	h := float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, borderColor)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, borderColor)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelLight)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelLight)
	ebitenutil.DrawRect(screen, x+1, y+1, w-3, 1, bevelDarker)
	ebitenutil.DrawRect(screen, x+1, y+2, 1, h-4, bevelDarker)
}

func (g *game) drawText(screen *ebiten.Image, msg string, x int, y int) {
	if msg == "" {
		return
	}
	img := g.textCache[msg]
	if img == nil {
		w := max(1, len([]rune(msg))*7)
		img = ebiten.NewImage(w, 14)
		ebitenutil.DebugPrintAt(img, msg, 0, 0)
		if len(g.textCache) > 3000 {
			g.textCache = make(map[string]*ebiten.Image, 1024)
		}
		g.textCache[msg] = img
	}
	// Embossed shadow behind the text.
	opS := &ebiten.DrawImageOptions{}
	opS.GeoM.Scale(textScale, textScale)
	opS.GeoM.Translate(float64(x+2), float64(y+2))
	opS.ColorScale.Scale(0, 0, 0, 1)
	screen.DrawImage(img, opS)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(textScale, textScale)
	op.GeoM.Translate(float64(x), float64(y))
	screen.DrawImage(img, op)
}

func shortenEnd(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	if maxChars <= 3 {
		return string(r[:max(0, maxChars)])
	}
	return string(r[:maxChars-3]) + "..."
}

func clamp(v, minV, maxV float64) float64 {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

func pointInRect(x, y int, rect image.Rectangle) bool {
	return x >= rect.Min.X && x < rect.Max.X && y >= rect.Min.Y && y < rect.Max.Y
}

func main() {
	var (
		variantName = flag.String("variant", "rich", "voice bank: compact|rich")
		seed        = flag.Uint64("seed", 1, "seed for every randomized parameter")
		proxyURL    = flag.String("proxy-url", "http://localhost:8080/api/observations", "observation proxy endpoint (empty = default observation only)")
		verbose     = flag.Bool("v", false, "log to stderr")
	)
	flag.Parse()

	var logger *slog.Logger
	if *verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	} else {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	variant, err := skydrone.ParseVariant(*variantName)
	if err != nil {
		log.Fatal(err)
	}
	g, err := newGame([]skydrone.Option{
		skydrone.WithVariant(variant),
		skydrone.WithSeed(*seed),
		skydrone.WithLogger(logger),
	})
	if err != nil {
		log.Fatal(err)
	}
	defer g.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if strings.TrimSpace(*proxyURL) != "" {
		client := observation.NewClient(*proxyURL, observation.DefaultTimeout, logger)
		go observation.NewPoller(client, observation.DefaultPollInterval, g.session.Observe, logger).Run(ctx)
	}

	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(minWindowW, minWindowH, -1, -1)
	ebiten.SetWindowTitle("skydrone")
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
