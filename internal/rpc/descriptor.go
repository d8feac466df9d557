package rpc

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	_ "google.golang.org/protobuf/types/known/structpb"
)

const (
	protoFile   = "bookmarker/v1/bookmarks.proto"
	serviceName = "bookmarker.v1.Bookmarks"
)

// bookmarksFile describes the service to reflection clients such as grpcurl.
// Requests and responses are google.protobuf.Struct values shaped like the
// HTTP API's JSON.
var bookmarksFile = &descriptorpb.FileDescriptorProto{
	Name:       proto.String(protoFile),
	Package:    proto.String("bookmarker.v1"),
	Dependency: []string{"google/protobuf/struct.proto"},
	Service: []*descriptorpb.ServiceDescriptorProto{
		{
			Name: proto.String("Bookmarks"),
			Method: []*descriptorpb.MethodDescriptorProto{
				{
					Name:       proto.String("ListBookmarks"),
					InputType:  proto.String(".google.protobuf.Struct"),
					OutputType: proto.String(".google.protobuf.Struct"),
				},
			},
		},
	},
	Syntax: proto.String("proto3"),
}

func init() {
	fd, err := protodesc.NewFile(bookmarksFile, protoregistry.GlobalFiles)
	if err != nil {
		panic(err)
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic(err)
	}
}
