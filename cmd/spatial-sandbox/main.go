// spatial-sandbox is an interactive demo for the soundfield engine:
// move an emitter around a fixed listener and hear requests coalesce,
// pan and attenuate. Expects wav assets named blast.wav and hum~.wav
// under the sound root (SOUNDFIELD_SOUND_DIR, default "sounds").
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/soundfield/audio"
	"github.com/lixenwraith/soundfield/vmath"
)

const (
	frameInterval = 33 * time.Millisecond
	unitsPerCell  = 25.0 // game units per terminal cell
)

type sandbox struct {
	screen        tcell.Screen
	width, height int

	player audio.Player
	blast  *audio.Sound
	hum    *audio.Sound

	// Emitter position in cells, listener is the screen center
	cursorX, cursorY int
	humOn            bool
	silent           bool
}

func main() {
	cfg := audio.LoadConfig()
	svc := audio.NewService()
	svc.Init(cfg)
	defer svc.Stop()

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "screen init: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()

	sb := &sandbox{
		screen: screen,
		player: svc.Player(),
		silent: svc.IsDisabled(),
	}
	sb.width, sb.height = screen.Size()
	sb.cursorX, sb.cursorY = sb.width/2+10, sb.height/2
	if sb.player != nil {
		sb.blast = sb.player.Get("blast")
		sb.hum = sb.player.Get("hum")
	}

	sb.run()
}

func (sb *sandbox) run() {
	events := make(chan tcell.Event, 8)
	go func() {
		for {
			events <- sb.screen.PollEvent()
		}
	}()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-events:
			if !sb.handleEvent(ev) {
				return
			}
		case <-ticker.C:
			sb.frame()
			sb.draw()
		}
	}
}

func (sb *sandbox) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		sb.width, sb.height = ev.Size()
		sb.screen.Sync()
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		switch ev.Rune() {
		case 'q':
			return false
		case 'h':
			sb.cursorX--
		case 'l':
			sb.cursorX++
		case 'k':
			sb.cursorY--
		case 'j':
			sb.cursorY++
		case ' ':
			if sb.player != nil {
				sb.player.PlayAt(sb.blast, sb.emitterPos(), vmath.Vec2F{})
			}
		case 'm':
			sb.humOn = !sb.humOn
		case '+', '=':
			if sb.player != nil {
				sb.player.SetVolume(sb.player.Volume() + 0.1)
			}
		case '-':
			if sb.player != nil {
				sb.player.SetVolume(sb.player.Volume() - 0.1)
			}
		}
	}
	return true
}

// frame drives one scheduler frame: listener update, keep-alive request
// for the looping hum, then the advance/allocate step.
func (sb *sandbox) frame() {
	if sb.player == nil {
		return
	}
	sb.player.Update(vmath.Vec2F{}, vmath.Vec2F{})
	if sb.humOn {
		sb.player.PlayAt(sb.hum, sb.emitterPos(), vmath.Vec2F{})
	}
	sb.player.Step()
}

// emitterPos maps the cursor cell to game units relative to the
// listener at the screen center.
func (sb *sandbox) emitterPos() vmath.Vec2F {
	return vmath.Vec2F{
		X: float64(sb.cursorX-sb.width/2) * unitsPerCell,
		Y: float64(sb.cursorY-sb.height/2) * unitsPerCell,
	}
}

func (sb *sandbox) draw() {
	sb.screen.Clear()

	title := "spatial-sandbox - hjkl: move emitter | space: blast | m: toggle hum | +/-: volume | q: quit"
	sb.text(1, 0, title, tcell.StyleDefault.Foreground(tcell.ColorGray))

	// Listener
	center := tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	sb.text(sb.width/2, sb.height/2, "@", center)

	// Emitter
	style := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	if sb.humOn {
		style = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	}
	sb.text(sb.cursorX, sb.cursorY, "x", style)

	status := "audio: silent mode (no device)"
	if sb.player != nil {
		pos := sb.emitterPos()
		status = fmt.Sprintf("load %3.0f%% | volume %.1f | hum %v | emitter (%+.0f,%+.0f)",
			sb.player.Progress()*100, sb.player.Volume(), sb.humOn, pos.X, pos.Y)
	}
	sb.text(1, sb.height-1, status, tcell.StyleDefault.Foreground(tcell.ColorTeal))

	sb.screen.Show()
}

func (sb *sandbox) text(x, y int, s string, style tcell.Style) {
	for i, r := range s {
		sb.screen.SetContent(x+i, y, r, nil, style)
	}
}
