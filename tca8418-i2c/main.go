package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/antongulenko/golib"
	"github.com/antongulenko/tca8418/board"
	"github.com/antongulenko/tca8418/i2cbus"
	"github.com/antongulenko/tca8418/tca8418"
	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
)

type commandFunc func(ctx context.Context) error

var (
	b          = board.DefaultBoard
	sleepTime  = 400 * time.Millisecond
	benchTime  = 3 * time.Second
	command    = "scan"
	pinName    = "R0"
	blinkCount = 0
	keypadRows = 4
	keypadCols = 4
	commands   = map[string]commandFunc{
		"none":   func(context.Context) error { return nil },
		"scan":   scan,
		"dump":   dumpRegisters,
		"blink":  blink,
		"button": button,
		"events": printEvents,
		"keypad": keypad,
		"bench":  registerSpeedTest,
	}
)

func main() {
	b.RegisterFlags()
	flag.DurationVar(&sleepTime, "sleep", sleepTime, "Sleep time between GPIO updates (blink command)")
	flag.DurationVar(&benchTime, "benchTime", benchTime, "Benchmark time (bench command)")
	flag.StringVar(&command, "c", command, fmt.Sprintf("Command to execute, one of: %v", commandNames()))
	flag.StringVar(&pinName, "pin", pinName, "Pin for the blink and button commands (R0-R7, C0-C9)")
	flag.IntVar(&blinkCount, "count", blinkCount, "Number of toggles for the blink command, 0 for endless")
	flag.IntVar(&keypadRows, "rows", keypadRows, "Number of keypad rows (keypad command)")
	flag.IntVar(&keypadCols, "cols", keypadCols, "Number of keypad columns (keypad command)")
	golib.RegisterFlags(golib.FlagsAll)
	flag.Parse()
	golib.ConfigureLogging()
	golib.Checkerr(doMain())
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func doMain() error {
	commandFunc, ok := commands[command]
	if !ok {
		return fmt.Errorf("Unknown command %v, available commands: %v", command, commandNames())
	}
	if err := b.Setup(); err != nil {
		return err
	}
	defer b.Cleanup()

	// "Clean" shutdown with Ctrl-C signal
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-c:
			log.Println("Received signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return commandFunc(ctx)
}

func scan(context.Context) error {
	slaves, err := i2cbus.Scan(b.Bus())
	if err != nil {
		return err
	}
	log.Printf("Scanned slaves: %#02v", slaves)
	return nil
}

func dumpRegisters(context.Context) error {
	for reg := byte(tca8418.REG_CFG); reg < tca8418.NUM_REGISTERS; reg++ {
		if reg == tca8418.REG_KEY_EVENT_A {
			// Reading would pop an event
			continue
		}
		val, err := b.Device.ReadRegister(reg)
		if err != nil {
			return err
		}
		fmt.Printf("%#02x: %08b (%#02x)\n", reg, val, val)
	}
	return nil
}

func selectedPin() (*tca8418.Pin, error) {
	number, err := tca8418.ParsePin(pinName)
	if err != nil {
		return nil, err
	}
	return b.Device.Pin(number)
}

func blink(ctx context.Context) error {
	pin, err := selectedPin()
	if err != nil {
		return err
	}
	log.Printf("Toggling %v every %v", pin, sleepTime)
	level := gpio.High
	for i := 0; blinkCount <= 0 || i < blinkCount; i++ {
		if err := pin.Out(level); err != nil {
			return err
		}
		log.Debugf("%v: %v", pin, level)
		level = !level
		select {
		case <-ctx.Done():
			return pin.Out(gpio.Low)
		case <-time.After(sleepTime):
		}
	}
	return pin.Out(gpio.Low)
}

func button(ctx context.Context) error {
	pin, err := selectedPin()
	if err != nil {
		return err
	}
	if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return err
	}
	log.Printf("Waiting for button presses on %v (connect the button to ground)", pin)
	for ctx.Err() == nil {
		if pin.WaitForEdge(sleepTime) {
			log.Printf("%v: button pressed, level now %v", pin, pin.Read())
		}
	}
	return nil
}

func printEvents(ctx context.Context) error {
	dev := b.Device
	// All pins report level changes through the FIFO
	if err := dev.EventModeFifo.Fill(true); err != nil {
		return err
	}
	if err := dev.EnableInt.Fill(true); err != nil {
		return err
	}
	if err := dev.SetConfig(tca8418.CFG_GPI_IEN|tca8418.CFG_OVR_FLOW_IEN, true); err != nil {
		return err
	}
	return watch(ctx)
}

func keypad(ctx context.Context) error {
	if err := b.Device.ConfigureKeypad(keypadRows, keypadCols); err != nil {
		return err
	}
	log.Printf("Scanning %vx%v keypad matrix", keypadRows, keypadCols)
	return watch(ctx)
}

func watch(ctx context.Context) error {
	w := b.Watcher()
	if w.Irq == nil {
		log.Printf("No IRQ pin configured, polling every %v", tca8418.DefaultPollInterval)
	}
	return w.Run(ctx, func(event tca8418.Event) {
		log.Println(event)
	})
}

func registerSpeedTest(ctx context.Context) error {
	log.Println("Measuring register reads...")
	err := bench(ctx, func() (int, error) {
		_, err := b.Device.ReadRegister(tca8418.REG_CFG)
		return 1, err
	})
	if err != nil {
		return err
	}
	log.Println("Measuring bank updates...")
	value := false
	return bench(ctx, func() (int, error) {
		value = !value
		return 1, b.Device.Debounce.Set(tca8418.R0, value)
	})
}

func bench(ctx context.Context, benchFunc func() (int, error)) error {
	start := time.Now()
	transmitted := 0
	for i := 0; ; i++ {
		transmittedNew, err := benchFunc()
		if err != nil {
			return err
		}
		transmitted += transmittedNew
		if i%20 == 0 {
			if duration := time.Since(start); duration > benchTime || ctx.Err() != nil {
				log.Printf("%v operations in %v -> %.2f ops/s", transmitted, duration, float64(transmitted)/duration.Seconds())
				break
			}
		}
	}
	return nil
}
