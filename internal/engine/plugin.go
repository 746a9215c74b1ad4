package engine

import (
	"context"
	"net/rpc"

	"github.com/hashicorp/go-plugin"
)

// PluginTypeEngine is the name engines are dispensed under.
const PluginTypeEngine = "engine"

// HandshakeConfig is shared by lintgate and every engine plugin binary.
var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "LINTGATE",
	MagicCookieValue: "5f0c7d1e9b2a4c6e8d3f1a7b9c2e4d6f8a1b3c5e",
}

// PluginMap is the plugin set lintgate dispenses from.
var PluginMap = map[string]plugin.Plugin{
	PluginTypeEngine: &EnginePlugin{},
}

// EngineRPCClient is the lintgate side of an engine plugin.
type EngineRPCClient struct{ client *rpc.Client }

// Execute forwards req to the plugin process. net/rpc calls cannot be
// cancelled, so ctx is only checked before the call.
func (g *EngineRPCClient) Execute(ctx context.Context, req Request) (Result, error) {
	var resp Result
	if err := ctx.Err(); err != nil {
		return resp, err
	}
	if err := g.client.Call("Plugin.Execute", req, &resp); err != nil {
		return resp, err
	}
	return resp, nil
}

// EngineRPCServer is the plugin side, wrapping a concrete Engine.
type EngineRPCServer struct {
	Impl Engine
}

// Execute runs the wrapped engine.
func (s *EngineRPCServer) Execute(req Request, resp *Result) error {
	var err error
	*resp, err = s.Impl.Execute(context.Background(), req)
	return err
}

// EnginePlugin implements plugin.Plugin for engines.
type EnginePlugin struct {
	Impl Engine
}

func (p *EnginePlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &EngineRPCServer{Impl: p.Impl}, nil
}

func (EnginePlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &EngineRPCClient{client: c}, nil
}
