//go:build windows
// +build windows

package traywin

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"unsafe"

	"github.com/lxn/win"
)

// Icon is a native icon resource for display in the notification area.
type Icon struct {
	handle win.HICON
}

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// NewIconFromBuffer decodes an in-memory .ico or PNG file into an icon.
// width and height select the best-matching image from an .ico directory;
// zero means the system default size. PNG buffers are rendered at their
// intrinsic size.
func NewIconFromBuffer(buf []byte, width, height int) (*Icon, error) {
	switch {
	case isICO(buf):
		return icoFromBuffer(buf, int32(width), int32(height))
	case bytes.HasPrefix(buf, pngMagic):
		img, err := png.Decode(bytes.NewReader(buf))
		if err != nil {
			return nil, fmt.Errorf("png decode: %w", ErrIconLoad)
		}
		return NewIconFromRGBA(toRGBA(img))
	default:
		return nil, fmt.Errorf("unrecognized image format: %w", ErrIconLoad)
	}
}

// NewIconFromRGBA builds an icon from raw pixels, for callers that draw
// their icon instead of shipping an asset.
func NewIconFromRGBA(img *image.RGBA) (*Icon, error) {
	h, err := iconFromRGBA(img)
	if err != nil {
		return nil, err
	}
	return &Icon{handle: h}, nil
}

// Handle returns the underlying HICON. It stays owned by the Icon.
func (ic *Icon) Handle() win.HICON {
	return ic.handle
}

// Close releases the native icon. The icon must no longer be displayed.
func (ic *Icon) Close() {
	if ic.handle != 0 {
		win.DestroyIcon(ic.handle)
		ic.handle = 0
	}
}

// isICO reports whether buf starts with an ICONDIR: reserved word zero,
// type 1, at least one entry.
func isICO(buf []byte) bool {
	if len(buf) < 6 {
		return false
	}
	reserved := uint16(buf[0]) | uint16(buf[1])<<8
	kind := uint16(buf[2]) | uint16(buf[3])<<8
	count := uint16(buf[4]) | uint16(buf[5])<<8
	return reserved == 0 && kind == 1 && count > 0
}

const (
	icoDirHeaderLen = 6
	icoDirEntryLen  = 16
)

// validateICODir checks that the whole icon directory and every image range
// it declares lie inside buf. LookupIconIdFromDirectoryEx walks the entries
// with no length parameter, so the bounds must hold before it sees the
// buffer.
func validateICODir(buf []byte) bool {
	count := int(binary.LittleEndian.Uint16(buf[4:6]))
	if len(buf) < icoDirHeaderLen+icoDirEntryLen*count {
		return false
	}
	for i := 0; i < count; i++ {
		entry := buf[icoDirHeaderLen+icoDirEntryLen*i:]
		size := uint64(binary.LittleEndian.Uint32(entry[8:12]))
		offset := uint64(binary.LittleEndian.Uint32(entry[12:16]))
		if size == 0 || offset+size > uint64(len(buf)) {
			return false
		}
	}
	return true
}

// icoFromBuffer picks the best-matching directory entry and creates the icon
// straight from the buffer, without touching the filesystem.
func icoFromBuffer(buf []byte, width, height int32) (*Icon, error) {
	if !validateICODir(buf) {
		return nil, fmt.Errorf("truncated icon directory: %w", ErrIconLoad)
	}
	offset, _, _ := procLookupIconIdFromDirectoryEx.Call(
		uintptr(unsafe.Pointer(&buf[0])),
		1, // icons, not cursors
		uintptr(width),
		uintptr(height),
		lrDefaultColor,
	)
	if offset == 0 || int(offset) >= len(buf) {
		return nil, fmt.Errorf("no matching icon in directory: %w", ErrIconLoad)
	}
	handle, _, _ := procCreateIconFromResourceEx.Call(
		uintptr(unsafe.Pointer(&buf[offset])),
		uintptr(len(buf)-int(offset)),
		1,
		iconResVersion,
		uintptr(width),
		uintptr(height),
		lrDefaultColor,
	)
	if handle == 0 {
		return nil, fmt.Errorf("CreateIconFromResourceEx: %w", ErrIconLoad)
	}
	return &Icon{handle: win.HICON(handle)}, nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba
}

type bitmapV5Header struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
	RedMask       uint32
	GreenMask     uint32
	BlueMask      uint32
	AlphaMask     uint32
	CSType        uint32
	Endpoints     [36]byte
	GammaRed      uint32
	GammaGreen    uint32
	GammaBlue     uint32
	Intent        uint32
	ProfileData   uint32
	ProfileSize   uint32
	Reserved      uint32
}

// iconFromRGBA copies the pixels into a 32-bit DIB section and wraps it in
// an HICON. Top-down DIB, so the header carries a negative height.
func iconFromRGBA(img *image.RGBA) (win.HICON, error) {
	bounds := img.Bounds()
	width := int32(bounds.Dx())
	height := int32(bounds.Dy())
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("empty image: %w", ErrIconLoad)
	}

	bi := bitmapV5Header{
		Size:     uint32(unsafe.Sizeof(bitmapV5Header{})),
		Width:    width,
		Height:   -height,
		Planes:   1,
		BitCount: 32,
	}

	hdc := win.GetDC(0)
	if hdc == 0 {
		return 0, fmt.Errorf("GetDC: %w", ErrOS)
	}
	defer win.ReleaseDC(0, hdc)

	var pBits unsafe.Pointer
	hBitmap, _, _ := procCreateDIBSection.Call(
		uintptr(hdc),
		uintptr(unsafe.Pointer(&bi)),
		0,
		uintptr(unsafe.Pointer(&pBits)),
		0,
		0,
	)
	if hBitmap == 0 || pBits == nil {
		return 0, fmt.Errorf("CreateDIBSection: %w", ErrOS)
	}

	pixels := unsafe.Slice((*uint32)(pBits), int(width)*int(height))
	for y := 0; y < int(height); y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < int(width); x++ {
			r := uint32(row[x*4])
			g := uint32(row[x*4+1])
			b := uint32(row[x*4+2])
			a := uint32(row[x*4+3])
			pixels[y*int(width)+x] = a<<24 | r<<16 | g<<8 | b
		}
	}

	hMask := win.CreateBitmap(width, height, 1, 1, nil)
	if hMask == 0 {
		win.DeleteObject(win.HGDIOBJ(hBitmap))
		return 0, fmt.Errorf("CreateBitmap: %w", ErrOS)
	}

	var iconInfo win.ICONINFO
	iconInfo.FIcon = 1
	iconInfo.HbmColor = win.HBITMAP(hBitmap)
	iconInfo.HbmMask = hMask

	hIcon := win.CreateIconIndirect(&iconInfo)
	win.DeleteObject(win.HGDIOBJ(hBitmap))
	win.DeleteObject(win.HGDIOBJ(hMask))
	if hIcon == 0 {
		return 0, fmt.Errorf("CreateIconIndirect: %w", ErrOS)
	}
	return hIcon, nil
}
