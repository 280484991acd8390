package malamute

/*------------------------------------------------------------------
 *
 * Purpose:	Line-oriented control console.
 *
 * Description: One grammar, several transports: stdin, a TCP listener
 *		(announced over DNS-SD), a serial device, a
 *		pseudo-terminal.  Every transport feeds lines into the
 *		same handler and writes the reply back.
 *
 *		Numeric settings clamp rather than reject: an operator
 *		fat-fingering a value mid-QSO should get the nearest
 *		legal setting, not a dead transmitter.  The exceptions
 *		are the carrier frequency, which is refused outside the
 *		band we are allowed to radiate in, and anything that
 *		doesn't parse at all.
 *
 *------------------------------------------------------------------*/

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/brutella/dnssd"
	"github.com/creack/pty"
	"github.com/pkg/term"

	"hz.tools/rf"
)

type console_t struct {
	trx  *sx1280_t /* nil when running without hardware */
	pipe *cmd_pipeline_t
	rb   *audio_ring_t
	ain  *audio_in_t /* nil in test tone mode */
}

func parse_bool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "1", "on", "true":
		return true, true
	case "0", "off", "false":
		return false, true
	}
	return false, false
}

/*------------------------------------------------------------------
 *
 * Name:	handle_line
 *
 * Purpose:	Execute one command line, return the reply text.
 *		Replies start with "OK" or "ERR:"; informational
 *		commands just print their report.
 *
 *------------------------------------------------------------------*/

func (con *console_t) handle_line(line string) string {
	var argv = strings.Fields(line)
	if len(argv) == 0 {
		return ""
	}

	switch strings.ToLower(argv[0]) {
	case "help":
		return cmd_help()
	case "get":
		return cfg_print()
	case "diag":
		return con.cmd_diag()
	case "cw":
		return con.cmd_cw()
	case "stop":
		return con.cmd_stop()
	}

	if strings.EqualFold(argv[0], "freq") && len(argv) >= 2 {
		var f, err = strconv.ParseUint(argv[1], 10, 64)
		if err != nil || rf.Hz(f) < FREQ_MIN || rf.Hz(f) > FREQ_MAX {
			return fmt.Sprintf("ERR: freq must be %d-%d Hz\n", uint64(FREQ_MIN), uint64(FREQ_MAX))
		}
		rf_set_center_freq(rf.Hz(f))
		return fmt.Sprintf("OK freq=%d Hz (steps=%d)\n", f, get_base_steps())
	}

	if strings.EqualFold(argv[0], "ppm") && len(argv) >= 2 {
		var ppm, err = strconv.ParseFloat(argv[1], 64)
		if err != nil {
			return "ERR: bad PPM value\n"
		}
		if ppm < -PPM_LIMIT {
			ppm = -PPM_LIMIT
		}
		if ppm > PPM_LIMIT {
			ppm = PPM_LIMIT
		}
		rf_set_ppm(ppm)
		return fmt.Sprintf("OK ppm=%.2f (steps=%d)\n", ppm, get_base_steps())
	}

	if strings.EqualFold(argv[0], "jitter") && len(argv) >= 2 {
		var jit, err = strconv.ParseFloat(argv[1], 64)
		if err != nil {
			return "ERR: bad jitter value\n"
		}
		if jit < 0 {
			jit = 0
		}
		if jit > TIMING_JITTER_MAX_US {
			jit = TIMING_JITTER_MAX_US
		}
		rf_set_jitter_us(uint32(jit))
		return fmt.Sprintf("OK jitter=%d us\n", rf_jitter_us())
	}

	if strings.EqualFold(argv[0], "txpwr") && len(argv) >= 2 {
		var pwr, err = strconv.ParseFloat(argv[1], 64)
		if err != nil {
			return "ERR: bad txpwr value\n"
		}
		if pwr < PWR_MIN_DBM {
			pwr = PWR_MIN_DBM
		}
		if pwr > PWR_MAX_DBM {
			pwr = PWR_MAX_DBM
		}
		rf_set_tx_power_max(int32(pwr))
		return fmt.Sprintf("OK txpwr=%d dBm\n", rf_tx_power_max())
	}

	if strings.EqualFold(argv[0], "enable") && len(argv) >= 3 {
		var v, ok = parse_bool(argv[2])
		if !ok {
			return "ERR: bad bool\n"
		}

		var set func(*audio_cfg_t)
		switch strings.ToLower(argv[1]) {
		case "bp":
			set = func(c *audio_cfg_t) { c.EnableBandpass = v }
		case "eq":
			set = func(c *audio_cfg_t) { c.EnableEq = v }
		case "comp":
			set = func(c *audio_cfg_t) { c.EnableComp = v }
		default:
			return "ERR: enable bp|eq|comp\n"
		}

		cfg_commit(set)
		return "OK\n"
	}

	if strings.EqualFold(argv[0], "set") && len(argv) >= 3 {
		var f, err = strconv.ParseFloat(argv[2], 32)
		if err != nil {
			return "ERR: bad number\n"
		}
		var v = float32(f)

		var set func(*audio_cfg_t)
		switch strings.ToLower(argv[1]) {
		case "bp_lo":
			set = func(c *audio_cfg_t) { c.BpLoHz = v }
		case "bp_hi":
			set = func(c *audio_cfg_t) { c.BpHiHz = v }
		case "bp_stages":
			set = func(c *audio_cfg_t) { c.BpStages = int(v) }
		case "eq_low_hz":
			set = func(c *audio_cfg_t) { c.EqLowHz = v }
		case "eq_low_db":
			set = func(c *audio_cfg_t) { c.EqLowDb = v }
		case "eq_high_hz":
			set = func(c *audio_cfg_t) { c.EqHighHz = v }
		case "eq_high_db":
			set = func(c *audio_cfg_t) { c.EqHighDb = v }
		case "eq_slope":
			set = func(c *audio_cfg_t) { c.EqSlope = v }
		case "comp_thr":
			set = func(c *audio_cfg_t) { c.CompThrDb = v }
		case "comp_ratio":
			set = func(c *audio_cfg_t) { c.CompRatio = v }
		case "comp_att":
			set = func(c *audio_cfg_t) { c.CompAttackMs = v }
		case "comp_rel":
			set = func(c *audio_cfg_t) { c.CompReleaseMs = v }
		case "comp_makeup":
			set = func(c *audio_cfg_t) { c.CompMakeupDb = v }
		case "comp_knee":
			set = func(c *audio_cfg_t) { c.CompKneeDb = v }
		case "comp_outlim":
			set = func(c *audio_cfg_t) { c.CompOutLimit = v }
		case "amp_gain":
			set = func(c *audio_cfg_t) { c.AmpGain = v }
		case "amp_min_a":
			set = func(c *audio_cfg_t) { c.AmpMinA = v }
		default:
			return "ERR: unknown key\n"
		}

		cfg_commit(set)
		return "OK\n"
	}

	return "ERR: unknown command (type 'help')\n"
}

func cfg_print() string {
	var c = cfg_snapshot()

	var b strings.Builder
	fmt.Fprintf(&b, "CFG:\n")
	fmt.Fprintf(&b, "  freq=%d Hz  ppm=%.2f  jitter=%d us  txpwr=%d dBm\n",
		uint64(rf_center_freq()), rf_ppm(), rf_jitter_us(), rf_tx_power_max())
	fmt.Fprintf(&b, "  enable bp=%v eq=%v comp=%v\n",
		c.EnableBandpass, c.EnableEq, c.EnableComp)
	fmt.Fprintf(&b, "  bp_lo=%.1f bp_hi=%.1f bp_stages=%d (%d dB/oct)\n",
		c.BpLoHz, c.BpHiHz, c.BpStages, c.BpStages*12)
	fmt.Fprintf(&b, "  eq_low_hz=%.1f eq_low_db=%.1f eq_high_hz=%.1f eq_high_db=%.1f eq_slope=%.2f\n",
		c.EqLowHz, c.EqLowDb, c.EqHighHz, c.EqHighDb, c.EqSlope)
	fmt.Fprintf(&b, "  comp_thr=%.1f ratio=%.2f att=%.2fms rel=%.2fms makeup=%.1f knee=%.1f outlim=%.3f\n",
		c.CompThrDb, c.CompRatio, c.CompAttackMs, c.CompReleaseMs, c.CompMakeupDb, c.CompKneeDb, c.CompOutLimit)
	fmt.Fprintf(&b, "  amp_gain=%.3f amp_min_a=%.9f\n",
		c.AmpGain, c.AmpMinA)
	return b.String()
}

func cmd_help() string {
	return "Commands:\n" +
		"  help\n" +
		"  get\n" +
		"  diag          - show transceiver status\n" +
		"  cw            - start CW test transmission\n" +
		"  stop          - stop CW transmission\n" +
		"  freq <Hz>     - set center frequency (e.g. freq 2400100000)\n" +
		"  ppm <value>   - set PPM correction (e.g. ppm -1.5)\n" +
		"  enable <bp|eq|comp> <0|1|on|off>\n" +
		"  set bp_lo <Hz>\n" +
		"  set bp_hi <Hz>\n" +
		"  set bp_stages <1-10>  (filter steepness: 12dB/oct per stage)\n" +
		"  set eq_low_hz <Hz>\n" +
		"  set eq_low_db <dB>\n" +
		"  set eq_high_hz <Hz>\n" +
		"  set eq_high_db <dB>\n" +
		"  set eq_slope <0.3-2.0> (shelf steepness: 0.5=gentle, 1.0=std, 2.0=steep)\n" +
		"  set comp_thr <dB>\n" +
		"  set comp_ratio <R>\n" +
		"  set comp_att <ms>\n" +
		"  set comp_rel <ms>\n" +
		"  set comp_makeup <dB>\n" +
		"  set comp_knee <dB>\n" +
		"  set comp_outlim <0..1>\n" +
		"  set amp_gain <float>\n" +
		"  set amp_min_a <float>\n" +
		"  jitter <0-30>  - set timing jitter in us (0=off)\n" +
		"  txpwr <-18..13> - set max TX power in dBm\n" +
		"\n" +
		"Notes: freq/ppm/jitter/txpwr changes apply immediately.\n"
}

func (con *console_t) cmd_diag() string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== Transceiver Diagnostics ===\n")

	if con.trx != nil {
		var status, err = con.trx.get_status()
		if err != nil {
			fmt.Fprintf(&b, "Status: read failed: %v\n", err)
		} else {
			var mode = (status >> 5) & 0x07
			fmt.Fprintf(&b, "Status: 0x%02X (mode=%d: %s)\n", status, mode, sx_mode_string(mode))
		}
		if busy, err := con.trx.busy.Value(); err == nil {
			fmt.Fprintf(&b, "BUSY pin: %d\n", busy)
		}
	} else {
		fmt.Fprintf(&b, "Status: no radio attached\n")
	}

	fmt.Fprintf(&b, "Center freq: %d Hz\n", uint64(rf_center_freq()))
	fmt.Fprintf(&b, "TX power max: %d dBm\n", rf_tx_power_max())

	if con.pipe != nil {
		fmt.Fprintf(&b, "Blocks: ready=%d/%d\n", con.pipe.ready_count(), NUM_BLOCKS)
		fmt.Fprintf(&b, "Underruns: %d\n", con.pipe.underrun_count())
	}
	if con.rb != nil {
		fmt.Fprintf(&b, "Audio ringbuf: %d/%d frames\n", con.rb.fill(), AUDIO_RB_FRAMES)
	}
	if con.ain != nil {
		fmt.Fprintf(&b, "Audio drops: %d\n", con.ain.drop_count())
	}
	fmt.Fprintf(&b, "===============================\n")
	return b.String()
}

/*------------------------------------------------------------------
 *
 * Name:	cmd_cw / cmd_stop
 *
 * Purpose:	Key a steady carrier for antenna and spectrum checks.
 *		The radio loop parks while the test owns the bus.
 *
 *------------------------------------------------------------------*/

func (con *console_t) cmd_cw() string {
	if con.trx == nil {
		return "ERR: no radio attached\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*** Starting CW test ***\n")

	rf_set_cw_test_mode(true)
	time.Sleep(10 * time.Millisecond) /* let the radio loop park */

	con.trx.set_standby()
	con.trx.set_packet_type_gfsk()

	con.trx.set_rf_frequency_steps(get_base_steps())
	fmt.Fprintf(&b, "Freq: %d Hz\n", uint64(rf_center_freq()))

	con.trx.set_tx_params_dbm(rf_tx_power_max())
	fmt.Fprintf(&b, "Power: %d dBm\n", rf_tx_power_max())

	con.trx.rx_en.SetValue(0)
	con.trx.set_tx_enable(true)
	con.trx.start_tx_continuous_wave()
	time.Sleep(5 * time.Millisecond)

	var status, err = con.trx.get_status()
	if err == nil {
		var mode = (status >> 5) & 0x07
		fmt.Fprintf(&b, "Status after CW: 0x%02X (mode=%d)\n", status, mode)
		if mode == 6 {
			fmt.Fprintf(&b, "*** TX ACTIVE - check spectrum analyzer! ***\n")
		} else {
			fmt.Fprintf(&b, "*** WARNING: TX not active! ***\n")
		}
	}
	return b.String()
}

func (con *console_t) cmd_stop() string {
	if con.trx == nil {
		return "ERR: no radio attached\n"
	}

	con.trx.set_tx_enable(false)
	con.trx.set_standby()
	rf_set_cw_test_mode(false)
	return "TX stopped, back to standby\n"
}

/*------------------------------------------------------------------
 *
 * Name:	serve
 *
 * Purpose:	Run the console protocol over any line-oriented
 *		byte stream until EOF.
 *
 *------------------------------------------------------------------*/

func (con *console_t) serve(r io.Reader, w io.Writer) {
	fmt.Fprintf(w, "\nmalamute control ready. Type 'help'.\n")
	io.WriteString(w, cfg_print())

	var scanner = bufio.NewScanner(r)
	for scanner.Scan() {
		var line = strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		var reply = con.handle_line(line)
		if reply != "" {
			io.WriteString(w, event_stamp()+reply)
		}
	}
}

/*------------------------------------------------------------------
 *
 * Name:	listen_tcp
 *
 * Purpose:	Accept console sessions on a TCP port and announce
 *		the service over DNS-SD so clients can find it.
 *
 *------------------------------------------------------------------*/

func (con *console_t) listen_tcp(port int) error {
	var listener, err = net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("console listen: %w", err)
	}

	applog.Info("console listening", "port", port)

	dnssd_announce(port)

	go func() {
		for {
			var conn, err = listener.Accept()
			if err != nil {
				applog.Error("console accept", "err", err)
				continue
			}
			applog.Info("console client connected", "remote", conn.RemoteAddr())
			go func(c net.Conn) {
				defer c.Close()
				con.serve(c, c)
			}(conn)
		}
	}()
	return nil
}

func dnssd_announce(port int) {
	var cfg = dnssd.Config{
		Name: "malamute",
		Type: "_malamute._tcp",
		Port: port,
	}
	var sv, err = dnssd.NewService(cfg)
	if err != nil {
		applog.Warn("dnssd service", "err", err)
		return
	}

	var rp, rerr = dnssd.NewResponder()
	if rerr != nil {
		applog.Warn("dnssd responder", "err", rerr)
		return
	}

	if _, err := rp.Add(sv); err != nil {
		applog.Warn("dnssd add", "err", err)
		return
	}

	go rp.Respond(context.Background())
	applog.Info("dnssd announced", "type", "_malamute._tcp", "port", port)
}

/*------------------------------------------------------------------
 *
 * Name:	serve_serial
 *
 * Purpose:	Console over a real serial device in raw mode.
 *
 *------------------------------------------------------------------*/

func (con *console_t) serve_serial(device string) error {
	var t, err = term.Open(device, term.RawMode)
	if err != nil {
		return fmt.Errorf("console serial %s: %w", device, err)
	}

	applog.Info("console on serial device", "device", device)

	go con.serve(t, t)
	return nil
}

/*------------------------------------------------------------------
 *
 * Name:	serve_pty
 *
 * Purpose:	Console over a pseudo-terminal, for attaching terminal
 *		emulators.  Prints the slave path so the operator knows
 *		what to attach to.
 *
 *------------------------------------------------------------------*/

func (con *console_t) serve_pty() error {
	var master, slave, err = pty.Open()
	if err != nil {
		return fmt.Errorf("console pty: %w", err)
	}

	applog.Info("console on pseudo terminal", "path", slave.Name())
	fmt.Printf("Console pseudo terminal: %s\n", slave.Name())

	go con.serve(master, master)
	return nil
}
