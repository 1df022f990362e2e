package bridgerpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "graftrpc.ComponentProvider"

// ComponentProviderServer is the server contract for the bridge.
type ComponentProviderServer interface {
	// Construct creates a component from engine-supplied inputs.
	Construct(ctx context.Context, req *ConstructRequest) (*ConstructResponse, error)

	// Call invokes a component method.
	Call(ctx context.Context, req *CallRequest) (*CallResponse, error)

	// Configure negotiates capabilities; it carries no state.
	Configure(ctx context.Context, req *ConfigureRequest) (*ConfigureResponse, error)

	// GetPluginInfo returns plugin metadata.
	GetPluginInfo(ctx context.Context, req *PluginInfoRequest) (*PluginInfo, error)

	// GetSchema returns the provider's declared schema.
	GetSchema(ctx context.Context, req *GetSchemaRequest) (*GetSchemaResponse, error)
}

// RegisterComponentProviderServer registers srv with the gRPC registrar.
func RegisterComponentProviderServer(s grpc.ServiceRegistrar, srv ComponentProviderServer) {
	s.RegisterService(&ComponentProvider_ServiceDesc, srv)
}

func _ComponentProvider_Construct_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ConstructRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ComponentProviderServer).Construct(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/Construct",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ComponentProviderServer).Construct(ctx, req.(*ConstructRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ComponentProvider_Call_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CallRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ComponentProviderServer).Call(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/Call",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ComponentProviderServer).Call(ctx, req.(*CallRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ComponentProvider_Configure_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ConfigureRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ComponentProviderServer).Configure(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/Configure",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ComponentProviderServer).Configure(ctx, req.(*ConfigureRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ComponentProvider_GetPluginInfo_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PluginInfoRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ComponentProviderServer).GetPluginInfo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/GetPluginInfo",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ComponentProviderServer).GetPluginInfo(ctx, req.(*PluginInfoRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ComponentProvider_GetSchema_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetSchemaRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ComponentProviderServer).GetSchema(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/GetSchema",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ComponentProviderServer).GetSchema(ctx, req.(*GetSchemaRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ComponentProvider_ServiceDesc is the service descriptor for the bridge.
var ComponentProvider_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ComponentProviderServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Construct", Handler: _ComponentProvider_Construct_Handler},
		{MethodName: "Call", Handler: _ComponentProvider_Call_Handler},
		{MethodName: "Configure", Handler: _ComponentProvider_Configure_Handler},
		{MethodName: "GetPluginInfo", Handler: _ComponentProvider_GetPluginInfo_Handler},
		{MethodName: "GetSchema", Handler: _ComponentProvider_GetSchema_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "graftrpc",
}

// ComponentProviderClient is the client contract for the bridge, used by the
// engine side and by tests.
type ComponentProviderClient interface {
	Construct(ctx context.Context, req *ConstructRequest, opts ...grpc.CallOption) (*ConstructResponse, error)
	Call(ctx context.Context, req *CallRequest, opts ...grpc.CallOption) (*CallResponse, error)
	Configure(ctx context.Context, req *ConfigureRequest, opts ...grpc.CallOption) (*ConfigureResponse, error)
	GetPluginInfo(ctx context.Context, req *PluginInfoRequest, opts ...grpc.CallOption) (*PluginInfo, error)
	GetSchema(ctx context.Context, req *GetSchemaRequest, opts ...grpc.CallOption) (*GetSchemaResponse, error)
}

type componentProviderClient struct {
	cc grpc.ClientConnInterface
}

// NewComponentProviderClient creates a client over an established connection.
// Calls are framed with the bridge's JSON codec.
func NewComponentProviderClient(cc grpc.ClientConnInterface) ComponentProviderClient {
	return &componentProviderClient{cc: cc}
}

func (c *componentProviderClient) invoke(ctx context.Context, method string, req, resp interface{}, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, req, resp, opts...)
}

func (c *componentProviderClient) Construct(ctx context.Context, req *ConstructRequest, opts ...grpc.CallOption) (*ConstructResponse, error) {
	resp := new(ConstructResponse)
	if err := c.invoke(ctx, "Construct", req, resp, opts); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *componentProviderClient) Call(ctx context.Context, req *CallRequest, opts ...grpc.CallOption) (*CallResponse, error) {
	resp := new(CallResponse)
	if err := c.invoke(ctx, "Call", req, resp, opts); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *componentProviderClient) Configure(ctx context.Context, req *ConfigureRequest, opts ...grpc.CallOption) (*ConfigureResponse, error) {
	resp := new(ConfigureResponse)
	if err := c.invoke(ctx, "Configure", req, resp, opts); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *componentProviderClient) GetPluginInfo(ctx context.Context, req *PluginInfoRequest, opts ...grpc.CallOption) (*PluginInfo, error) {
	resp := new(PluginInfo)
	if err := c.invoke(ctx, "GetPluginInfo", req, resp, opts); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *componentProviderClient) GetSchema(ctx context.Context, req *GetSchemaRequest, opts ...grpc.CallOption) (*GetSchemaResponse, error) {
	resp := new(GetSchemaResponse)
	if err := c.invoke(ctx, "GetSchema", req, resp, opts); err != nil {
		return nil, err
	}
	return resp, nil
}
