package malamute

/*------------------------------------------------------------------
 *
 * Purpose:	SX1280 transceiver driver.
 *
 * Description: Minimal command set: standby, packet type, frequency,
 *		TX parameters, continuous wave.  The chip asserts BUSY
 *		while digesting a command; every write waits for BUSY
 *		low before clocking and again after, so commands never
 *		overlap.
 *
 *		The voice path only ever calls set_rf_frequency_steps,
 *		set_tx_params_dbm, start_tx_continuous_wave and
 *		set_standby, so that is the interface the radio loop
 *		sees.  Tests substitute a recording fake.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

const (
	OPCODE_GET_STATUS       = 0xC0
	OPCODE_SET_STANDBY      = 0x80
	OPCODE_SET_PACKET_TYPE  = 0x8A
	OPCODE_SET_RF_FREQUENCY = 0x86
	OPCODE_SET_TX_PARAMS    = 0x8E
	OPCODE_SET_TX_CW        = 0xD1

	STDBY_RC   = 0x00
	STDBY_XOSC = 0x01

	PACKET_TYPE_GFSK = 0x00

	RAMP_TIME_10_US = 0xE0
)

// transceiver_t is what the radio timing loop drives.
type transceiver_t interface {
	set_rf_frequency_steps(steps uint32) error
	set_tx_params_dbm(dbm int32) error
	start_tx_continuous_wave() error
	set_standby() error
	set_tx_enable(on bool) error
	set_led(on bool)
}

// gpio line interfaces, sized to what we use.  gpiocdev satisfies
// them; tests use in-memory fakes.
type gpio_out_t interface {
	SetValue(v int) error
}

type gpio_in_t interface {
	Value() (int, error)
}

type sx1280_t struct {
	spi *spi_dev_t

	busy    gpio_in_t
	tx_en   gpio_out_t
	rx_en   gpio_out_t
	reset   gpio_out_t
	tcxo_en gpio_out_t
	led     gpio_out_t

	use_tcxo bool
}

/*------------------------------------------------------------------
 *
 * Name:	sx1280_open
 *
 * Purpose:	Claim the SPI device and GPIO lines and bring the chip
 *		up to standby at the given initial frequency.
 *
 * Description: Order matters on TCXO boards: the oscillator must be
 *		powered and stable before the first reset or SPI
 *		transaction, or the chip wedges until power cycle.
 *
 *------------------------------------------------------------------*/

func sx1280_open(hw *hardware_cfg_t) (*sx1280_t, error) {
	var spi, err = spi_open(hw.SpiDevice, hw.SpiSpeedHz)
	if err != nil {
		return nil, err
	}

	var request_out = func(offset int, initial int, name string) (*gpiocdev.Line, error) {
		var l, lerr = gpiocdev.RequestLine(hw.GpioChip, offset,
			gpiocdev.AsOutput(initial), gpiocdev.WithConsumer("malamute"))
		if lerr != nil {
			return nil, fmt.Errorf("gpio %s (offset %d): %w", name, offset, lerr)
		}
		return l, nil
	}

	var sx = &sx1280_t{spi: spi, use_tcxo: hw.UseTcxo}

	if hw.UseTcxo {
		var tcxo, terr = request_out(hw.PinTcxoEn, 1, "tcxo_en")
		if terr != nil {
			spi.close()
			return nil, terr
		}
		sx.tcxo_en = tcxo
		time.Sleep(5 * time.Millisecond) /* TCXO startup, min 3 ms */
		applog.Info("tcxo enabled", "offset", hw.PinTcxoEn)
	}

	var rx_en, rerr = request_out(hw.PinRxEn, 0, "rx_en")
	if rerr != nil {
		spi.close()
		return nil, rerr
	}
	sx.rx_en = rx_en

	var tx_en, xerr = request_out(hw.PinTxEn, 0, "tx_en")
	if xerr != nil {
		spi.close()
		return nil, xerr
	}
	sx.tx_en = tx_en

	var reset, serr = request_out(hw.PinReset, 1, "reset")
	if serr != nil {
		spi.close()
		return nil, serr
	}
	sx.reset = reset

	var busy, berr = gpiocdev.RequestLine(hw.GpioChip, hw.PinBusy,
		gpiocdev.AsInput, gpiocdev.WithConsumer("malamute"))
	if berr != nil {
		spi.close()
		return nil, fmt.Errorf("gpio busy (offset %d): %w", hw.PinBusy, berr)
	}
	sx.busy = busy

	var led, lederr = request_out(hw.PinLed, 0, "led")
	if lederr != nil {
		applog.Warn("led line unavailable, diagnostics LED disabled", "err", lederr)
	} else {
		sx.led = led
	}

	/* Hardware reset pulse. */

	sx.reset.SetValue(0)
	time.Sleep(2 * time.Millisecond)
	sx.reset.SetValue(1)
	time.Sleep(10 * time.Millisecond)

	if err := sx.set_standby(); err != nil {
		spi.close()
		return nil, err
	}

	if err := sx.set_packet_type_gfsk(); err != nil {
		spi.close()
		return nil, err
	}

	if err := sx.set_rf_frequency_steps(get_base_steps()); err != nil {
		spi.close()
		return nil, err
	}

	if err := sx.set_tx_params_dbm(PWR_MIN_DBM); err != nil {
		spi.close()
		return nil, err
	}

	applog.Info("sx1280 up",
		"spi", hw.SpiDevice,
		"freq", rf_center_freq(),
		"tcxo", hw.UseTcxo)

	return sx, nil
}

// wait_busy polls the BUSY line until the chip is ready to accept a
// command.  The chip answers in microseconds; the deadline only
// exists to turn wedged hardware into a log line instead of a hang.
func (sx *sx1280_t) wait_busy() {
	var deadline = time.Now().Add(10 * time.Millisecond)
	for {
		var v, err = sx.busy.Value()
		if err != nil || v == 0 {
			return
		}
		if time.Now().After(deadline) {
			applog.Warn("busy line stuck high")
			return
		}
	}
}

func (sx *sx1280_t) write_cmd(opcode byte, params ...byte) error {
	sx.wait_busy()

	var buf = make([]byte, 0, 1+len(params))
	buf = append(buf, opcode)
	buf = append(buf, params...)

	if err := sx.spi.write(buf); err != nil {
		return err
	}

	sx.wait_busy()
	return nil
}

func (sx *sx1280_t) set_standby() error {
	if sx.use_tcxo {
		return sx.write_cmd(OPCODE_SET_STANDBY, STDBY_XOSC)
	}
	return sx.write_cmd(OPCODE_SET_STANDBY, STDBY_RC)
}

func (sx *sx1280_t) set_packet_type_gfsk() error {
	return sx.write_cmd(OPCODE_SET_PACKET_TYPE, PACKET_TYPE_GFSK)
}

func encode_power_dbm(dbm int32) byte {
	if dbm > PWR_MAX_DBM {
		dbm = PWR_MAX_DBM
	}
	if dbm < PWR_MIN_DBM {
		dbm = PWR_MIN_DBM
	}
	return byte(dbm + 18) /* 0..31 */
}

func (sx *sx1280_t) set_tx_params_dbm(dbm int32) error {
	return sx.write_cmd(OPCODE_SET_TX_PARAMS, encode_power_dbm(dbm), RAMP_TIME_10_US)
}

func (sx *sx1280_t) start_tx_continuous_wave() error {
	return sx.write_cmd(OPCODE_SET_TX_CW)
}

func (sx *sx1280_t) set_rf_frequency_steps(steps uint32) error {
	return sx.write_cmd(OPCODE_SET_RF_FREQUENCY,
		byte(steps>>16), byte(steps>>8), byte(steps))
}

func (sx *sx1280_t) set_tx_enable(on bool) error {
	var v = 0
	if on {
		v = 1
	}
	return sx.tx_en.SetValue(v)
}

func (sx *sx1280_t) set_led(on bool) {
	if sx.led == nil {
		return
	}
	var v = 0
	if on {
		v = 1
	}
	sx.led.SetValue(v)
}

/*------------------------------------------------------------------
 *
 * Name:	get_status
 *
 * Purpose:	Read the chip status byte (mode in bits 7:5).
 *
 *------------------------------------------------------------------*/

func (sx *sx1280_t) get_status() (byte, error) {
	sx.wait_busy()

	var tx = []byte{OPCODE_GET_STATUS, 0x00}
	var rx = make([]byte, 2)
	if err := sx.spi.transfer(tx, rx); err != nil {
		return 0, err
	}
	return rx[1], nil
}

func sx_mode_string(mode byte) string {
	switch mode {
	case 2:
		return "STDBY_RC"
	case 3:
		return "STDBY_XOSC"
	case 4:
		return "FS"
	case 5:
		return "RX"
	case 6:
		return "TX"
	}
	return "UNKNOWN"
}
