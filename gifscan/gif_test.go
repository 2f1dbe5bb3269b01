package gifscan_test

// frame describes one image block in a synthetic GIF.
type frame struct {
	// delay in hundredths of a second; ignored unless gce is set
	delay uint16
	gce   bool
	// localBits >= 0 adds a local colour table of 2^(localBits+1) entries
	localBits int
}

// gifOptions describes the header of a synthetic GIF.
type gifOptions struct {
	// globalBits >= 0 adds a global colour table of 2^(globalBits+1) entries
	globalBits int
	background byte
	// extras are raw blocks written before the first frame
	extras [][]byte
}

func noGlobal() gifOptions { return gifOptions{globalBits: -1} }

func buildGIF(opts gifOptions, frames ...frame) []byte {
	b := []byte("GIF89a")
	var packed byte
	if opts.globalBits >= 0 {
		packed = 0x80 | byte(opts.globalBits)
	}
	b = append(b, 0x10, 0x00, 0x10, 0x00, packed, opts.background, 0x00)
	if opts.globalBits >= 0 {
		entries := 1 << (opts.globalBits + 1)
		for i := 0; i < entries; i++ {
			b = append(b, byte(i), byte(i*2), byte(i*3))
		}
	}
	for _, x := range opts.extras {
		b = append(b, x...)
	}
	for _, f := range frames {
		if f.gce {
			b = append(b, 0x21, 0xF9, 0x04, 0x00, byte(f.delay), byte(f.delay>>8), 0x00, 0x00)
		}
		var local byte
		if f.localBits >= 0 {
			local = 0x80 | byte(f.localBits)
		}
		b = append(b, 0x2C, 0, 0, 0, 0, 0x10, 0x00, 0x10, 0x00, local)
		if f.localBits >= 0 {
			b = append(b, make([]byte, 3*(1<<(f.localBits+1)))...)
		}
		// LZW minimum code size, one data sub-block, terminator
		b = append(b, 0x02, 0x02, 0x4C, 0x01, 0x00)
	}
	return append(b, 0x3B)
}

func timed(delay uint16) frame { return frame{delay: delay, gce: true, localBits: -1} }
