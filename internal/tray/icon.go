package tray

import (
	"bytes"
	"encoding/binary"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"
)

const iconSize = 32

// Icon renders the tray icon: a PNG, wrapped in an ICO container for
// Windows.
func Icon(windows bool) ([]byte, error) {
	dc := gg.NewContext(iconSize, iconSize)

	// pad body
	dc.SetHexColor("#7c4dff")
	dc.DrawRoundedRectangle(2, 8, 28, 16, 7)
	dc.Fill()

	// d-pad
	dc.SetHexColor("#ffffff")
	dc.DrawRectangle(7, 14, 8, 3)
	dc.DrawRectangle(9.5, 11.5, 3, 8)
	dc.Fill()

	// face buttons
	dc.SetHexColor("#00e5ff")
	dc.DrawCircle(21, 13.5, 1.8)
	dc.DrawCircle(24.5, 17, 1.8)
	dc.Fill()
	dc.SetHexColor("#69f0ae")
	dc.DrawCircle(21, 20, 1.8)
	dc.Fill()

	var png bytes.Buffer
	if err := dc.EncodePNG(&png); err != nil {
		return nil, errors.Wrap(err, "cannot encode tray icon")
	}
	if !windows {
		return png.Bytes(), nil
	}
	return wrapICO(png.Bytes(), iconSize), nil
}

// wrapICO builds a single-image ICO file around PNG data.
func wrapICO(png []byte, size int) []byte {
	const headerLen = 6 + 16

	var buf bytes.Buffer
	// ICONDIR
	_ = binary.Write(&buf, binary.LittleEndian, [3]uint16{0, 1, 1})
	// ICONDIRENTRY
	buf.WriteByte(byte(size % 256))
	buf.WriteByte(byte(size % 256))
	buf.WriteByte(0) // palette
	buf.WriteByte(0) // reserved
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))  // planes
	_ = binary.Write(&buf, binary.LittleEndian, uint16(32)) // bpp
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(png)))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(headerLen))
	buf.Write(png)
	return buf.Bytes()
}
