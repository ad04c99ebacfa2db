package local

import (
	"sync"
	"testing"

	"github.com/icet-go/icet/internal/comm"
)

func TestSendRecvFIFO(t *testing.T) {
	g := NewGroup(2)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = g[0].Send([]byte{1}, comm.Byte, 1, 7)
		_ = g[0].Send([]byte{2}, comm.Byte, 1, 7)
	}()

	buf1 := make([]byte, 1)
	buf2 := make([]byte, 1)
	if err := g[1].Recv(buf1, comm.Byte, 0, 7); err != nil {
		t.Fatalf("Recv 1: %v", err)
	}
	if err := g[1].Recv(buf2, comm.Byte, 0, 7); err != nil {
		t.Fatalf("Recv 2: %v", err)
	}
	wg.Wait()
	if buf1[0] != 1 || buf2[0] != 2 {
		t.Fatalf("FIFO violated: got %d, %d", buf1[0], buf2[0])
	}
}

func TestAllgatherConcatenatesInRankOrder(t *testing.T) {
	g := NewGroup(3)
	var wg sync.WaitGroup
	results := make([][]byte, 3)
	for r := 0; r < 3; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			send := []byte{byte(r + 10)}
			recv := make([]byte, 3)
			if err := g[r].Allgather(send, comm.Byte, recv); err != nil {
				t.Errorf("rank %d Allgather: %v", r, err)
			}
			results[r] = recv
		}(r)
	}
	wg.Wait()

	want := []byte{10, 11, 12}
	for r, got := range results {
		for i, b := range want {
			if got[i] != b {
				t.Errorf("rank %d recvbuf = %v, want %v", r, got, want)
			}
		}
	}
}

func TestGatherOnlyRootGetsResult(t *testing.T) {
	g := NewGroup(2)
	var wg sync.WaitGroup
	recvRoot := make([]byte, 2)
	recvOther := make([]byte, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = g[0].Gather([]byte{5}, comm.Byte, recvRoot, 0)
	}()
	go func() {
		defer wg.Done()
		_ = g[1].Gather([]byte{6}, comm.Byte, recvOther, 0)
	}()
	wg.Wait()
	if recvRoot[0] != 5 || recvRoot[1] != 6 {
		t.Fatalf("root recvbuf = %v, want [5 6]", recvRoot)
	}
}

func TestIsendIrecvWait(t *testing.T) {
	g := NewGroup(2)
	recv := make([]byte, 1)
	rreq, err := g[1].Irecv(recv, comm.Byte, 0, 1)
	if err != nil {
		t.Fatalf("Irecv: %v", err)
	}
	sreq, err := g[0].Isend([]byte{9}, comm.Byte, 1, 1)
	if err != nil {
		t.Fatalf("Isend: %v", err)
	}
	if err := g[0].Wait(sreq); err != nil {
		t.Fatalf("Wait send: %v", err)
	}
	if err := g[1].Wait(rreq); err != nil {
		t.Fatalf("Wait recv: %v", err)
	}
	if recv[0] != 9 {
		t.Fatalf("recv = %v, want [9]", recv)
	}
}

func TestWaitanyReportsCompletedIndex(t *testing.T) {
	g := NewGroup(2)
	recv := make([]byte, 1)
	req, err := g[1].Irecv(recv, comm.Byte, 0, 2)
	if err != nil {
		t.Fatalf("Irecv: %v", err)
	}
	if err := g[0].Send([]byte{3}, comm.Byte, 1, 2); err != nil {
		t.Fatalf("Send: %v", err)
	}
	idx, err := g[1].Waitany([]comm.Request{req})
	if err != nil {
		t.Fatalf("Waitany: %v", err)
	}
	if idx != 0 {
		t.Fatalf("Waitany index = %d, want 0", idx)
	}
}

func TestDuplicateIsolatesTagNamespace(t *testing.T) {
	g := NewGroup(2)
	dup0 := g[0].Duplicate()
	dup1 := g[1].Duplicate()

	recv := make([]byte, 1)
	done := make(chan error, 1)
	go func() {
		done <- dup1.Recv(recv, comm.Byte, 0, 1)
	}()
	if err := dup0.Send([]byte{42}, comm.Byte, 1, 1); err != nil {
		t.Fatalf("Send on duplicate: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Recv on duplicate: %v", err)
	}
	if recv[0] != 42 {
		t.Fatalf("recv = %v, want [42]", recv)
	}
}
