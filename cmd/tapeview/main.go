// Command tapeview runs a Dynamic Brainfuck program in a window and draws
// the tape and the allocator's ownership map while it executes.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"dynbf/pkg/lang"
	"dynbf/pkg/utils"
	"dynbf/pkg/vm"
)

const (
	gridCols   = 200
	cellScale  = 3
	panelH     = 150
	lineHeight = 14
	outputKeep = 4096
	outputRows = 6
)

type Game struct {
	m      *vm.Machine
	output *outputLog
	face   text.Face

	tapeImg *ebiten.Image // one pixel per cell, scaled by cellScale
	rows    int

	stepsPerFrame int
	paused        bool
	err           error
}

func newGame(m *vm.Machine, out *outputLog, stepsPerFrame int) *Game {
	return &Game{
		m:             m,
		output:        out,
		face:          text.NewGoXFace(basicfont.Face7x13),
		rows:          gridRows(m.Mem.Capacity(), gridCols),
		stepsPerFrame: stepsPerFrame,
	}
}

func (g *Game) Update() error {
	for _, r := range ebiten.AppendInputChars(nil) {
		if r < 0x100 {
			g.m.PushInput(byte(r))
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.m.PushInput('\n')
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && g.stepsPerFrame < 1<<20 {
		g.stepsPerFrame *= 2
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && g.stepsPerFrame > 1 {
		g.stepsPerFrame /= 2
	}

	if g.err != nil {
		return nil
	}
	n := g.stepsPerFrame
	if g.paused {
		n = 0
		if inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) {
			n = 1
		}
	}
	if _, err := g.m.RunSteps(n); err != nil {
		g.err = err
	}
	return nil
}

func (g *Game) state() string {
	switch {
	case g.err != nil:
		return g.err.Error()
	case g.m.Halted:
		return "halted"
	case g.m.Waiting:
		return "waiting for input"
	case g.paused:
		return "paused"
	}
	return "running"
}

func (g *Game) drawTape(screen *ebiten.Image) {
	if g.tapeImg == nil {
		g.tapeImg = ebiten.NewImage(gridCols, g.rows)
	}
	g.tapeImg.WritePixels(tapePixels(g.m.Mem, g.m.Ptr, gridCols))

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(cellScale, cellScale)
	screen.DrawImage(g.tapeImg, op)
}

func (g *Game) drawLine(screen *ebiten.Image, s string, row int, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(4, float64(g.rows*cellScale+4+row*lineHeight))
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, s, g.face, op)
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.drawTape(screen)

	cell := "?"
	if v, err := g.m.Mem.Cell(g.m.Ptr); err == nil {
		cell = fmt.Sprint(v)
	}
	g.drawLine(screen, fmt.Sprintf("ptr=%d cell=%s refs=%d unfreed=%d steps=%d speed=%d/frame",
		g.m.Ptr, cell, g.m.RefTop, g.m.Mem.Unfreed(), g.m.Steps, g.stepsPerFrame), 0, color.White)

	stateColor := color.Color(color.RGBA{0x80, 0xff, 0x80, 0xff})
	if g.err != nil {
		stateColor = color.RGBA{0xff, 0x60, 0x60, 0xff}
	}
	g.drawLine(screen, g.state(), 1, stateColor)

	for i, line := range g.output.Tail(outputRows) {
		g.drawLine(screen, line, 3+i, color.Gray{0xc0})
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return gridCols * cellScale, g.rows*cellScale + panelH
}

func main() {
	capacity := flag.Int("capacity", 0, "tape capacity in cells (default 30000)")
	checked := flag.Bool("checked", false, "fault on bad pointers, null dereference and invalid free")
	speed := flag.Int("speed", 64, "ops executed per frame")
	restore := flag.String("restore", "", "start from a snapshot instead of a program file")
	flag.Parse()

	out := &outputLog{limit: outputKeep}
	m := vm.NewMachine(vm.Options{Capacity: *capacity, Checked: *checked, Output: out})

	switch {
	case *restore != "":
		if err := m.RestoreFromFile(*restore); err != nil {
			log.Fatalf("Failed to restore snapshot: %v", err)
		}
	case flag.NArg() == 1:
		fullPath, _, err := utils.GetPathInfo(flag.Arg(0))
		if err != nil {
			log.Fatalf("Bad path: %v", err)
		}
		src, err := os.ReadFile(fullPath)
		if err != nil {
			log.Fatalf("Failed to read source file: %v", err)
		}
		prog, err := lang.Parse(src)
		if err != nil {
			log.Fatalf("%s: %v", flag.Arg(0), err)
		}
		m.Load(prog)
	default:
		fmt.Fprintln(os.Stderr, "usage: tapeview [flags] program.dbf")
		flag.Usage()
		os.Exit(2)
	}
	if *speed < 1 {
		*speed = 1
	}

	game := newGame(m, out, *speed)
	w, h := game.Layout(0, 0)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle("Dynamic Brainfuck tape")

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
