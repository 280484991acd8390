package malamute

/*------------------------------------------------------------------
 *
 * Purpose:	Thin spidev wrapper.
 *
 * Description: Just enough of the Linux spidev ioctl interface for
 *		the transceiver driver: mode/speed/word-size setup,
 *		plain writes for commands, and one full-duplex transfer
 *		for reads that clock data back while sending.
 *
 *		The kernel handles chip select for us, one assertion
 *		per write/transfer, which matches how the chip frames
 *		its commands.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	spi_ioc_wr_mode          = 0x40016b01
	spi_ioc_wr_bits_per_word = 0x40016b03
	spi_ioc_wr_max_speed_hz  = 0x40046b04
	spi_ioc_message_1        = 0x40206b00
)

// spi_ioc_transfer mirrors struct spi_ioc_transfer from
// <linux/spi/spidev.h>.  Field order and sizes matter.
type spi_ioc_transfer struct {
	tx_buf        uint64
	rx_buf        uint64
	len           uint32
	speed_hz      uint32
	delay_usecs   uint16
	bits_per_word uint8
	cs_change     uint8
	tx_nbits      uint8
	rx_nbits      uint8
	word_delay_us uint8
	pad           uint8
}

type spi_dev_t struct {
	f        *os.File
	speed_hz uint32
}

func spi_open(path string, speed_hz uint32) (*spi_dev_t, error) {
	var f, err = os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("spi open %s: %w", path, err)
	}

	var fd = int(f.Fd())

	var mode uint8 = 0 /* CPOL=0 CPHA=0 */
	if err := unix.IoctlSetPointerInt(fd, spi_ioc_wr_mode, int(mode)); err != nil {
		f.Close()
		return nil, fmt.Errorf("spi set mode: %w", err)
	}

	var bits uint8 = 8
	if err := unix.IoctlSetPointerInt(fd, spi_ioc_wr_bits_per_word, int(bits)); err != nil {
		f.Close()
		return nil, fmt.Errorf("spi set bits per word: %w", err)
	}

	if err := unix.IoctlSetPointerInt(fd, spi_ioc_wr_max_speed_hz, int(speed_hz)); err != nil {
		f.Close()
		return nil, fmt.Errorf("spi set speed: %w", err)
	}

	return &spi_dev_t{f: f, speed_hz: speed_hz}, nil
}

func (s *spi_dev_t) close() error {
	return s.f.Close()
}

// write clocks buf out in a single chip-select frame.
func (s *spi_dev_t) write(buf []byte) error {
	var n, err = s.f.Write(buf)
	if err != nil {
		return fmt.Errorf("spi write: %w", err)
	}
	if n != len(buf) {
		return fmt.Errorf("spi write: short write %d of %d", n, len(buf))
	}
	return nil
}

/*------------------------------------------------------------------
 *
 * Name:	transfer
 *
 * Purpose:	Full-duplex exchange: tx and rx are the same length,
 *		rx[i] is the byte clocked in while tx[i] went out.
 *
 *------------------------------------------------------------------*/

func (s *spi_dev_t) transfer(tx []byte, rx []byte) error {
	Assert(len(tx) == len(rx))

	var xfer = spi_ioc_transfer{
		tx_buf:        uint64(uintptr(unsafe.Pointer(&tx[0]))),
		rx_buf:        uint64(uintptr(unsafe.Pointer(&rx[0]))),
		len:           uint32(len(tx)),
		speed_hz:      s.speed_hz,
		bits_per_word: 8,
	}

	var _, _, errno = unix.Syscall(unix.SYS_IOCTL,
		s.f.Fd(), uintptr(spi_ioc_message_1), uintptr(unsafe.Pointer(&xfer)))
	if errno != 0 {
		return fmt.Errorf("spi transfer: %w", errno)
	}
	return nil
}
