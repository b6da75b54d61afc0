package kdf

import (
	"encoding/binary"
	"sync"

	"golang.org/x/crypto/blake2b"
)

const (
	blockLength = 128 // uint64 words per 1 KiB block
	syncPoints  = 4   // slices per pass
)

type block [blockLength]uint64

// deriveKey runs the full Argon2 computation (version 0x13) for any variant,
// with optional secret and associated data.
func deriveKey(v Variant, password, salt, secret, data []byte, time, memory, threads, keyLen uint32) []byte {
	if time < 1 {
		panic("kdf: number of rounds too small")
	}
	if threads < 1 {
		panic("kdf: parallelism degree too low")
	}
	h0 := initHash(password, salt, secret, data, time, memory, threads, keyLen, v)
	defer zero(h0[:])

	// round down to a multiple of 4 blocks per lane
	memory = memory / (syncPoints * threads) * (syncPoints * threads)
	if memory < 2*syncPoints*threads {
		memory = 2 * syncPoints * threads
	}

	B := initBlocks(&h0, memory, threads)
	defer clear(B)

	processBlocks(B, time, memory, threads, v)
	return extractKey(B, memory, threads, keyLen)
}

// initHash computes H0 over the parameters and inputs.
func initHash(password, salt, secret, data []byte, time, memory, threads, keyLen uint32, v Variant) [blake2b.Size + 8]byte {
	var (
		h0     [blake2b.Size + 8]byte
		params [24]byte
		tmp    [4]byte
	)

	b2, _ := blake2b.New512(nil)
	binary.LittleEndian.PutUint32(params[0:4], threads)
	binary.LittleEndian.PutUint32(params[4:8], keyLen)
	binary.LittleEndian.PutUint32(params[8:12], memory)
	binary.LittleEndian.PutUint32(params[12:16], time)
	binary.LittleEndian.PutUint32(params[16:20], uint32(Version))
	binary.LittleEndian.PutUint32(params[20:24], uint32(v))
	b2.Write(params[:])

	for _, in := range [][]byte{password, salt, secret, data} {
		binary.LittleEndian.PutUint32(tmp[:], uint32(len(in)))
		b2.Write(tmp[:])
		b2.Write(in)
	}
	b2.Sum(h0[:0])
	return h0
}

// initBlocks allocates the memory matrix and fills the first two blocks of
// every lane from H0.
func initBlocks(h0 *[blake2b.Size + 8]byte, memory, threads uint32) []block {
	var buf [1024]byte
	defer zero(buf[:])

	B := make([]block, memory)
	for lane := uint32(0); lane < threads; lane++ {
		j := lane * (memory / threads)
		binary.LittleEndian.PutUint32(h0[blake2b.Size+4:], lane)

		for i := uint32(0); i < 2; i++ {
			binary.LittleEndian.PutUint32(h0[blake2b.Size:], i)
			blake2bHash(buf[:], h0[:])
			for k := range B[j+i] {
				B[j+i][k] = binary.LittleEndian.Uint64(buf[k*8:])
			}
		}
	}
	return B
}

// processBlocks runs all passes. Lanes of one slice are filled concurrently
// and joined before the next slice starts.
func processBlocks(B []block, time, memory, threads uint32, v Variant) {
	laneLen := memory / threads
	segLen := laneLen / syncPoints

	processSegment := func(n, slice, lane uint32, wg *sync.WaitGroup) {
		defer wg.Done()

		var addresses, in, zeroBlock block
		dataIndependent := v == Argon2i || (v == Argon2id && n == 0 && slice < syncPoints/2)
		if dataIndependent {
			in[0] = uint64(n)
			in[1] = uint64(lane)
			in[2] = uint64(slice)
			in[3] = uint64(memory)
			in[4] = uint64(time)
			in[5] = uint64(v)
		}

		index := uint32(0)
		if n == 0 && slice == 0 {
			index = 2 // first two blocks come from initBlocks
			if dataIndependent {
				in[6]++
				processBlock(&addresses, &in, &zeroBlock)
				processBlock(&addresses, &addresses, &zeroBlock)
			}
		}

		offset := lane*laneLen + slice*segLen + index
		var random uint64
		for index < segLen {
			prev := offset - 1
			if index == 0 && slice == 0 {
				prev += laneLen // last block of the lane
			}
			if dataIndependent {
				if index%blockLength == 0 {
					in[6]++
					processBlock(&addresses, &in, &zeroBlock)
					processBlock(&addresses, &addresses, &zeroBlock)
				}
				random = addresses[index%blockLength]
			} else {
				random = B[prev][0]
			}
			ref := indexAlpha(random, laneLen, segLen, threads, n, slice, lane, index)
			processBlockXOR(&B[offset], &B[prev], &B[ref])
			index, offset = index+1, offset+1
		}
	}

	for n := uint32(0); n < time; n++ {
		for slice := uint32(0); slice < syncPoints; slice++ {
			var wg sync.WaitGroup
			for lane := uint32(0); lane < threads; lane++ {
				wg.Add(1)
				go processSegment(n, slice, lane, &wg)
			}
			wg.Wait()
		}
	}
}

// extractKey XORs the last block of every lane and hashes it to keyLen bytes.
func extractKey(B []block, memory, threads, keyLen uint32) []byte {
	laneLen := memory / threads
	for lane := uint32(0); lane < threads-1; lane++ {
		for i, w := range B[lane*laneLen+laneLen-1] {
			B[memory-1][i] ^= w
		}
	}

	var buf [1024]byte
	defer zero(buf[:])
	for i, w := range B[memory-1] {
		binary.LittleEndian.PutUint64(buf[i*8:], w)
	}
	key := make([]byte, keyLen)
	blake2bHash(key, buf[:])
	return key
}

// indexAlpha maps a pseudo-random value to the absolute index of the
// reference block.
func indexAlpha(rand uint64, laneLen, segLen, threads, n, slice, lane, index uint32) uint32 {
	refLane := uint32(rand>>32) % threads
	if n == 0 && slice == 0 {
		refLane = lane
	}

	m, s := 3*segLen, ((slice+1)%syncPoints)*segLen
	if lane == refLane {
		m += index
	}
	if n == 0 {
		m, s = slice*segLen, 0
		if slice == 0 || lane == refLane {
			m += index
		}
	}
	if index == 0 || lane == refLane {
		m--
	}
	return phi(rand, uint64(m), uint64(s), refLane, laneLen)
}

func phi(rand, m, s uint64, lane, laneLen uint32) uint32 {
	p := rand & 0xFFFFFFFF
	p = (p * p) >> 32
	p = (p * m) >> 32
	return lane*laneLen + uint32((s+m-(p+1))%uint64(laneLen))
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
