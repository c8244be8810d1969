//go:build cgo

package javasrc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"txlens/internal/facts"
	"txlens/internal/identity"
	"txlens/internal/logging"
)

const paymentEntity = `package com.shop.model;

import jakarta.persistence.*;
import java.util.List;

@Entity
@Table(name = "payments", indexes = {@Index(columnList = "status")})
public class Payment {

    @Id
    @GeneratedValue(strategy = GenerationType.IDENTITY)
    private Long id;

    @Column(unique = true)
    private String reference;

    private String email;

    private String status;

    @OneToMany(fetch = FetchType.EAGER, cascade = CascadeType.ALL, orphanRemoval = true)
    private List<AuditEntry> auditTrail;
}
`

const paymentRepository = `package com.shop.repo;

import com.shop.model.Payment;
import org.springframework.data.jpa.repository.JpaRepository;

public interface PaymentRepository extends JpaRepository<Payment, Long> {
    Payment findByReference(String reference);
    void deleteByEmail(String email);
}
`

const paymentService = `package com.shop.service;

import com.shop.model.Payment;
import com.shop.repo.PaymentRepository;
import org.springframework.kafka.core.KafkaTemplate;
import org.springframework.stereotype.Service;
import org.springframework.transaction.annotation.Propagation;
import org.springframework.transaction.annotation.Transactional;
import java.util.List;

@Service
public class PaymentService {

    private PaymentRepository paymentRepository;
    private KafkaTemplate<String, String> kafkaTemplate;
    private AuditWriter auditWriter;

    @Transactional
    public void settle(List<Payment> payments) {
        for (Payment payment : payments) {
            paymentRepository.save(payment);
        }
        payments.forEach(p -> auditWriter.append(p));
        kafkaTemplate.send("payments", "settled");
        cleanup();
    }

    @Transactional(propagation = Propagation.REQUIRES_NEW, readOnly = true)
    public Payment lookup(String reference) {
        return paymentRepository.findByReference(reference);
    }

    public void reconcile(List<Payment> payments) {
        payments.stream()
                .filter(p -> paymentRepository.findByReference(p.toString()) != null)
                .map(p -> paymentRepository.save(p))
                .count();
    }

    private void cleanup() {
        paymentRepository.deleteByEmail("stale@example.com");
    }
}
`

const auditWriter = `package com.shop.service;

public interface AuditWriter {
    void append(Object entry);
}
`

const auditWriterImpl = `package com.shop.service;

import org.springframework.stereotype.Component;

@Component
public class DatabaseAuditWriter implements AuditWriter {
    public void append(Object entry) {
    }
}
`

func indexFixture(t *testing.T) *Provider {
	t.Helper()

	dir := t.TempDir()
	files := map[string]string{
		"com/shop/model/Payment.java":               paymentEntity,
		"com/shop/repo/PaymentRepository.java":      paymentRepository,
		"com/shop/service/PaymentService.java":      paymentService,
		"com/shop/service/AuditWriter.java":         auditWriter,
		"com/shop/service/DatabaseAuditWriter.java": auditWriterImpl,
	}
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	p := NewProvider(logging.Nop())
	if err := p.Index(context.Background(), Options{Roots: []string{dir}}); err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	return p
}

func TestMethodFactsDeclaration(t *testing.T) {
	p := indexFixture(t)
	ctx := context.Background()

	ids := p.FindMethods("PaymentService.lookup")
	if len(ids) != 1 {
		t.Fatalf("FindMethods returned %d ids, want 1", len(ids))
	}

	mf, err := p.MethodFacts(ctx, ids[0])
	if err != nil || mf == nil {
		t.Fatalf("MethodFacts: %v, %v", mf, err)
	}
	if mf.Package != "com.shop.service" {
		t.Errorf("Package = %q, want com.shop.service", mf.Package)
	}
	if mf.ContainingType != "com.shop.service.PaymentService" {
		t.Errorf("ContainingType = %q", mf.ContainingType)
	}
	if !mf.TypeAnnotations.Has("Service") {
		t.Error("type annotation Service missing")
	}

	tx, ok := mf.Annotations.Find("Transactional")
	if !ok {
		t.Fatal("Transactional annotation missing")
	}
	if prop, _ := tx.Attribute("propagation"); prop != "Propagation.REQUIRES_NEW" {
		t.Errorf("propagation = %q, want Propagation.REQUIRES_NEW", prop)
	}
	if ro, _ := tx.Attribute("readOnly"); ro != "true" {
		t.Errorf("readOnly = %q, want true", ro)
	}
	if mf.Visibility != "public" {
		t.Errorf("Visibility = %q, want public", mf.Visibility)
	}
}

func TestCallSites(t *testing.T) {
	p := indexFixture(t)
	ctx := context.Background()

	ids := p.FindMethods("PaymentService.settle")
	if len(ids) != 1 {
		t.Fatalf("FindMethods returned %d ids, want 1", len(ids))
	}
	sites, err := p.CallSites(ctx, ids[0])
	if err != nil {
		t.Fatalf("CallSites: %v", err)
	}

	bySig := make(map[string]facts.CallSite)
	for _, s := range sites {
		bySig[s.ReceiverType+"."+s.MethodName] = s
	}

	save, ok := bySig["PaymentRepository.save"]
	if !ok {
		t.Fatal("save call site missing")
	}
	if !save.InLoop {
		t.Error("save inside a for loop should be in-loop")
	}
	// save is inherited from JpaRepository, which is not indexed source,
	// so the call stays unresolved but keeps its receiver type.
	if save.Resolved() {
		t.Error("inherited CRUD call should stay unresolved")
	}

	appendCall, ok := bySig["AuditWriter.append"]
	if !ok {
		t.Fatal("append call site missing")
	}
	if !appendCall.InLoop {
		t.Error("forEach lambda body should count as in-loop")
	}
	if !appendCall.Resolved() {
		t.Error("append should resolve to the declared interface method")
	}

	send, ok := bySig["KafkaTemplate.send"]
	if !ok {
		t.Fatal("kafka send call site missing")
	}
	if send.Resolved() {
		t.Error("external-library call should stay unresolved")
	}
	if send.ArgCount != 2 {
		t.Errorf("send arg count = %d, want 2", send.ArgCount)
	}

	cleanup, ok := bySig["PaymentService.cleanup"]
	if !ok {
		t.Fatal("implicit-this call site missing")
	}
	if !cleanup.Resolved() {
		t.Error("same-class call should resolve")
	}
	if cleanup.InLoop {
		t.Error("cleanup is called outside any loop")
	}
}

func TestCallSitesStreamLambdas(t *testing.T) {
	p := indexFixture(t)
	ctx := context.Background()

	ids := p.FindMethods("PaymentService.reconcile")
	if len(ids) != 1 {
		t.Fatalf("FindMethods returned %d ids, want 1", len(ids))
	}
	sites, err := p.CallSites(ctx, ids[0])
	if err != nil {
		t.Fatalf("CallSites: %v", err)
	}

	bySig := make(map[string]facts.CallSite)
	for _, s := range sites {
		bySig[s.ReceiverType+"."+s.MethodName] = s
	}

	save, ok := bySig["PaymentRepository.save"]
	if !ok {
		t.Fatal("save call site missing")
	}
	if !save.InLoop {
		t.Error("map lambda body should count as in-loop")
	}

	find, ok := bySig["PaymentRepository.findByReference"]
	if !ok {
		t.Fatal("findByReference call site missing")
	}
	if !find.InLoop {
		t.Error("filter lambda body should count as in-loop")
	}
}

func TestCallersInversion(t *testing.T) {
	p := indexFixture(t)
	ctx := context.Background()

	ids := p.FindMethods("PaymentService.cleanup")
	if len(ids) != 1 {
		t.Fatalf("FindMethods returned %d ids, want 1", len(ids))
	}
	callers, err := p.Callers(ctx, ids[0])
	if err != nil {
		t.Fatalf("Callers: %v", err)
	}
	if len(callers) != 1 {
		t.Fatalf("got %d callers, want 1", len(callers))
	}
	if callers[0].Caller.Name != "settle" {
		t.Errorf("caller = %s, want settle", callers[0].Caller)
	}
}

func TestImplementations(t *testing.T) {
	p := indexFixture(t)
	ctx := context.Background()

	ids := p.FindMethods("AuditWriter.append")
	var ifaceID identity.MethodID
	for _, id := range ids {
		if id.Owner == "com.shop.service.AuditWriter" {
			ifaceID = id
		}
	}
	if ifaceID.IsZero() {
		t.Fatal("interface method not found")
	}

	impls, err := p.Implementations(ctx, ifaceID)
	if err != nil {
		t.Fatalf("Implementations: %v", err)
	}
	if len(impls) != 1 {
		t.Fatalf("got %d implementations, want 1", len(impls))
	}
	if impls[0].Owner != "com.shop.service.DatabaseAuditWriter" {
		t.Errorf("implementation owner = %q", impls[0].Owner)
	}
}

func TestEntityFacts(t *testing.T) {
	p := indexFixture(t)

	e := p.Entity("Payment")
	if e == nil {
		t.Fatal("Payment entity not found")
	}
	if e.Name != "com.shop.model.Payment" {
		t.Errorf("entity name = %q", e.Name)
	}
	if e.Table != "payments" {
		t.Errorf("table = %q, want payments", e.Table)
	}
	if e.IDGeneration != facts.GenIdentity {
		t.Errorf("id generation = %s, want identity", e.IDGeneration)
	}

	if !e.Indexed("id") {
		t.Error("id field should be indexed")
	}
	if !e.Indexed("reference") {
		t.Error("unique column should be indexed")
	}
	if !e.Indexed("status") {
		t.Error("status is covered by a table index declaration")
	}
	if e.Indexed("email") {
		t.Error("email has no index")
	}
	if e.Indexed("doesNotExist") {
		t.Error("unknown field must not count as indexed")
	}

	if len(e.Relations) != 1 {
		t.Fatalf("got %d relations, want 1", len(e.Relations))
	}
	rel := e.Relations[0]
	if rel.Kind != facts.RelOneToMany || !rel.Eager || !rel.CascadeAll || !rel.OrphanRemoval {
		t.Errorf("relation = %+v, want eager cascading one-to-many with orphan removal", rel)
	}
	if rel.TargetType != "AuditEntry" {
		t.Errorf("relation target = %q, want AuditEntry", rel.TargetType)
	}
}

func TestRepositoryEntity(t *testing.T) {
	p := indexFixture(t)

	if got := p.RepositoryEntity("PaymentRepository"); got != "com.shop.model.Payment" {
		t.Errorf("RepositoryEntity = %q, want com.shop.model.Payment", got)
	}
	if got := p.RepositoryEntity("PaymentService"); got != "" {
		t.Errorf("non-repository type should yield empty, got %q", got)
	}
}

func TestFindMethods(t *testing.T) {
	p := indexFixture(t)

	if ids := p.FindMethods("settle"); len(ids) != 1 {
		t.Errorf("FindMethods(settle) = %d ids, want 1", len(ids))
	}
	if ids := p.FindMethods("PaymentService#settle"); len(ids) != 1 {
		t.Errorf("hash-qualified query should match, got %d", len(ids))
	}
	if ids := p.FindMethods("append"); len(ids) != 2 {
		t.Errorf("FindMethods(append) = %d ids, want 2 (interface and impl)", len(ids))
	}
	if ids := p.FindMethods("nonexistent"); len(ids) != 0 {
		t.Errorf("FindMethods(nonexistent) = %d ids, want 0", len(ids))
	}
}

func TestIndexMissingRoot(t *testing.T) {
	p := NewProvider(logging.Nop())
	err := p.Index(context.Background(), Options{Roots: []string{"/does/not/exist"}})
	if err == nil {
		t.Fatal("expected an error for a missing source root")
	}
}
