package models

import "image"

// Frame is one decoded video frame. Index is the frame position in the
// source, counted from the first frame of the file.
type Frame struct {
	Index int
	Image image.Image
}
