package grpcsource

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrNotFound    = errors.New("grpcsource: archive not found")
	ErrInvalidName = errors.New("grpcsource: invalid archive name")
)

func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound:
		return ErrNotFound
	case codes.InvalidArgument:
		return ErrInvalidName
	default:
		return err
	}
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, ErrNotFound.Error())
	case errors.Is(err, ErrInvalidName):
		return status.Error(codes.InvalidArgument, ErrInvalidName.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
