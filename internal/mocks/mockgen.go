package mocks

//go:generate sh -c "go run go.uber.org/mock/mockgen -package mocks -destination codec.go github.com/observe-l/sclfec/fec Codec"
