package malamute

/*------------------------------------------------------------------
 *
 * Purpose:	Command block pipeline between producer and radio loop.
 *
 * Description: A ring of fixed blocks, each one block of per-sample
 *		radio commands.  Per-block atomic ready flags carry the
 *		ownership: the producer fills a block then raises its
 *		flag; the radio loop drains it then lowers the flag.
 *		The block payload itself is only ever touched by the
 *		side that currently owns it, so the flag is the only
 *		synchronization needed.
 *
 *		The producer pre-fills half the ring before raising the
 *		start gate, giving the radio loop margin against host
 *		audio scheduling hiccups at startup.
 *
 *------------------------------------------------------------------*/

import (
	"runtime"
	"sync/atomic"
)

type cmd_block_t [BLOCK_SAMPLES]sample_cmd_t

type cmd_pipeline_t struct {
	blocks [NUM_BLOCKS]cmd_block_t
	ready  [NUM_BLOCKS]atomic.Bool

	prod_block uint32 /* producer only */
	cons_block uint32 /* consumer only */

	started   atomic.Bool
	underruns atomic.Uint32
}

/*------------------------------------------------------------------
 *
 * Name:	produce_block
 *
 * Purpose:	Claim the next block for filling.  Spins (politely)
 *		while the radio loop still owns it.
 *
 *------------------------------------------------------------------*/

func (p *cmd_pipeline_t) produce_block() *cmd_block_t {
	var b = p.prod_block
	for p.ready[b].Load() {
		runtime.Gosched()
	}
	return &p.blocks[b]
}

// commit_block hands the just-filled block to the radio loop and
// advances the producer index.
func (p *cmd_pipeline_t) commit_block() {
	var b = p.prod_block
	p.ready[b].Store(true)
	p.prod_block = (b + 1) % NUM_BLOCKS
}

/*------------------------------------------------------------------
 *
 * Name:	consume_block
 *
 * Purpose:	Take the next ready block, or nil when the producer
 *		has fallen behind.  A nil return is an underrun; the
 *		caller decides how to ride it out.
 *
 *------------------------------------------------------------------*/

func (p *cmd_pipeline_t) consume_block() *cmd_block_t {
	var b = p.cons_block
	if !p.ready[b].Load() {
		return nil
	}
	return &p.blocks[b]
}

// release_block returns the drained block to the producer and
// advances the consumer index.
func (p *cmd_pipeline_t) release_block() {
	var b = p.cons_block
	p.ready[b].Store(false)
	p.cons_block = (b + 1) % NUM_BLOCKS
}

func (p *cmd_pipeline_t) ready_count() int {
	var n = 0
	for i := 0; i < NUM_BLOCKS; i++ {
		if p.ready[i].Load() {
			n++
		}
	}
	return n
}

func (p *cmd_pipeline_t) signal_start()    { p.started.Store(true) }
func (p *cmd_pipeline_t) is_started() bool { return p.started.Load() }

func (p *cmd_pipeline_t) note_underrun()          { p.underruns.Add(1) }
func (p *cmd_pipeline_t) underrun_count() uint32  { return p.underruns.Load() }
