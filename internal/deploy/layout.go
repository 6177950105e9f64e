package deploy

import "path"

// Layout describes where things live locally and on the remote host.
type Layout struct {
	Program string

	ServiceDir string
	LogDir     string
	BinaryName string

	SupervisorConfigLocal  string
	SupervisorConfigRemote string

	IndexLocal  string
	StaticLocal string

	RestartWithSudo bool
}

func (l Layout) RemoteBinaryPath() string {
	return path.Join(l.ServiceDir, l.BinaryName)
}

func (l Layout) RemoteIndexPath() string {
	return path.Join(l.ServiceDir, "index.html")
}

func (l Layout) RemoteStaticPath() string {
	return path.Join(l.ServiceDir, "static")
}
