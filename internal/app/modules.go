package app

import (
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/modules/arith"
	"github.com/vk/flowgridgo/modules/constant"
	"github.com/vk/flowgridgo/modules/envflag"
	"github.com/vk/flowgridgo/modules/http_request"
	"github.com/vk/flowgridgo/modules/print"
	"github.com/vk/flowgridgo/modules/socketio"
)

// coreModules is the default operator set available to every flow.
var coreModules = []registry.Module{
	&constant.Module{},
	&arith.Module{},
	&envflag.Module{},
	&http_request.Module{},
	&print.Module{},
	&socketio.Module{},
}
