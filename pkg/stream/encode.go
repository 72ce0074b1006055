package stream

import (
	"bytes"

	"gocv.io/x/gocv"
)

// Encoder turns an annotated frame into image bytes.
type Encoder func(img gocv.Mat) ([]byte, error)

// JPEG returns an Encoder producing JPEG at the given quality.
// Quality 0 keeps OpenCV's default.
func JPEG(quality int) Encoder {
	return func(img gocv.Mat) ([]byte, error) {
		return EncodeJPEG(img, quality)
	}
}

// EncodeJPEG encodes img as JPEG.
func EncodeJPEG(img gocv.Mat, quality int) ([]byte, error) {
	var (
		buf *gocv.NativeByteBuffer
		err error
	)
	if quality > 0 {
		buf, err = gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{gocv.IMWriteJpegQuality, quality})
	} else {
		buf, err = gocv.IMEncode(gocv.JPEGFileExt, img)
	}
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	return bytes.Clone(buf.GetBytes()), nil
}
