// ABOUTME: Minimal Ogg container package
// ABOUTME: Page parsing, page building and packet reassembly for decoders
// Package ogg implements the parts of the Ogg container (RFC 3533) needed
// by the decoders: reading and validating pages, serialising them again for
// passthrough, and reassembling logical packets that span pages.
//
// Example:
//
//	pages := ogg.NewReader(f)
//	packets := ogg.NewPacketReader(pages)
//	for {
//	    pkt, err := packets.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    ...
//	}
package ogg
