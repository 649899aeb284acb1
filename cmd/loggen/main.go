// loggen synthesizes CSV access-log lines at controlled timestamps and hit
// rates, for exercising accessmond. Output goes to stdout and is
// deterministic for a fixed seed.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"
)

const header = `"remotehost","rfc931","authuser","date","request","status","bytes"`

var statuses = []int{200, 200, 200, 200, 301, 404, 500}

type generator struct {
	w        *bufio.Writer
	rng      *rand.Rand
	sections []string
}

// emit writes count log lines at the given timestamp, sections and status
// codes drawn from the generator's pools.
func (g *generator) emit(ts int64, count int) {
	for i := 0; i < count; i++ {
		section := g.sections[g.rng.Intn(len(g.sections))]
		path := section
		if g.rng.Intn(2) == 0 {
			path = fmt.Sprintf("%s/item%d", section, g.rng.Intn(100))
		}
		status := statuses[g.rng.Intn(len(statuses))]
		bytes := 200 + g.rng.Intn(5000)
		fmt.Fprintf(g.w, "\"10.0.0.%d\",\"-\",\"apache\",%d,\"GET %s HTTP/1.0\",%d,%d\n",
			1+g.rng.Intn(250), ts, path, status, bytes)
	}
}

func main() {
	scenario := flag.Int("scenario", 0, "canned scenario (1-3); 0 = steady rate mode")
	start := flag.Int64("start", 0, "first timestamp (default: now)")
	rate := flag.Int("rate", 5, "hits per second in steady mode")
	duration := flag.Int("duration", 300, "seconds of traffic in steady mode")
	seed := flag.Int64("seed", 1, "random seed")
	sections := flag.String("sections", "/api,/report,/help,/static", "comma-separated section pool")
	flag.Parse()

	ts := *start
	if ts == 0 {
		ts = time.Now().Unix()
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	g := &generator{
		w:        w,
		rng:      rand.New(rand.NewSource(*seed)),
		sections: strings.Split(*sections, ","),
	}

	fmt.Fprintln(w, header)

	switch *scenario {
	case 1:
		// 1200 hits per 120s window twice: exactly at the default threshold,
		// must not trigger the alert.
		g.emit(ts, 1200)
		g.emit(ts+120, 1200)
	case 2:
		// 1201 hits per 120s window twice: alert triggers, clears on the
		// first hit of the second batch, then triggers again.
		g.emit(ts, 1201)
		g.emit(ts+120, 1201)
	case 3:
		// Out-of-order tail: the late hit at ts+119 lands inside the window
		// that already moved on to ts+120.
		g.emit(ts, 1200)
		g.emit(ts+120, 1)
		g.emit(ts+119, 1)
	case 0:
		for s := 0; s < *duration; s++ {
			g.emit(ts+int64(s), *rate)
		}
	default:
		fmt.Fprintf(os.Stderr, "loggen: unknown scenario %d\n", *scenario)
		os.Exit(1)
	}
}
