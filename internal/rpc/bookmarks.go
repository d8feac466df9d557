package rpc

import (
	"context"
	"encoding/json"
	"math"
	"strconv"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Rogue-Bear-Innovations/bookmarker/internal/models"
	"github.com/Rogue-Bear-Innovations/bookmarker/internal/service"
)

const listBookmarksFullName = "/" + serviceName + "/ListBookmarks"

type (
	// BookmarksServer takes {search, tagId, menuPath, limit, offset} and
	// answers {items: Bookmark[]}.
	BookmarksServer interface {
		ListBookmarks(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	}

	BookmarksClient interface {
		ListBookmarks(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	}

	bookmarksClient struct {
		cc grpc.ClientConnInterface
	}
)

var bookmarksServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*BookmarksServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListBookmarks",
			Handler:    listBookmarksHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: protoFile,
}

func RegisterBookmarksServer(s grpc.ServiceRegistrar, srv BookmarksServer) {
	s.RegisterService(&bookmarksServiceDesc, srv)
}

func listBookmarksHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookmarksServer).ListBookmarks(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: listBookmarksFullName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BookmarksServer).ListBookmarks(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func NewBookmarksClient(cc grpc.ClientConnInterface) BookmarksClient {
	return &bookmarksClient{cc: cc}
}

func (c *bookmarksClient) ListBookmarks(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, listBookmarksFullName, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// listRequest reads the list filter out of a request struct. Numbers may be
// sent as JSON numbers or decimal strings; null counts as absent.
func listRequest(in *structpb.Struct) (models.BookmarkListReq, error) {
	fields := in.GetFields()
	req := models.BookmarkListReq{
		Search:   fields["search"].GetStringValue(),
		MenuPath: fields["menuPath"].GetStringValue(),
	}

	tagID, ok, err := wholeNumber(fields, "tagId")
	if err != nil {
		return req, err
	}
	if ok {
		if tagID < 0 {
			return req, &service.ValidationError{Msg: "tagId must not be negative"}
		}
		id := uint64(tagID)
		req.TagID = &id
	}

	for name, dst := range map[string]**int{"limit": &req.Limit, "offset": &req.Offset} {
		n, ok, err := wholeNumber(fields, name)
		if err != nil {
			return req, err
		}
		if ok {
			v := int(n)
			*dst = &v
		}
	}
	return req, nil
}

func wholeNumber(fields map[string]*structpb.Value, name string) (int64, bool, error) {
	v, ok := fields[name]
	if !ok {
		return 0, false, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return 0, false, nil
	case *structpb.Value_NumberValue:
		if k.NumberValue != math.Trunc(k.NumberValue) || math.Abs(k.NumberValue) > math.MaxInt32 {
			return 0, false, &service.ValidationError{Msg: "invalid " + name}
		}
		return int64(k.NumberValue), true, nil
	case *structpb.Value_StringValue:
		n, err := strconv.ParseInt(k.StringValue, 10, 64)
		if err != nil {
			return 0, false, &service.ValidationError{Msg: "invalid " + name}
		}
		return n, true, nil
	}
	return 0, false, &service.ValidationError{Msg: "invalid " + name}
}

// listResponse carries the bookmarks in the same JSON shape the HTTP API
// returns.
func listResponse(items []models.Bookmark) (*structpb.Struct, error) {
	b, err := json.Marshal(map[string]interface{}{"items": items})
	if err != nil {
		return nil, errors.Wrap(err, "marshal bookmarks")
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, errors.Wrap(err, "convert bookmarks")
	}
	return out, nil
}
