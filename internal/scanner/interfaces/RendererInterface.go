package interfaces

// RendererInterface writes a scannable image for code to path.
type RendererInterface interface {
	Render(code, path string) error
}
