package ingress

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/aws/aws-sdk-go/service/ec2/ec2iface"
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	codeDuplicate = "InvalidPermission.Duplicate"
	codeNotFound  = "InvalidPermission.NotFound"
)

var (
	ErrUnknownGroup = errors.New("unknown security group")
	ErrNoGroups     = errors.New("no security groups given")
)

// Permission is a single ingress rule: traffic of Protocol on the port
// range FromPort..ToPort from CIDR.
type Permission struct {
	Protocol string
	FromPort int64
	ToPort   int64
	CIDR     string
}

// Port returns a permission for a single port.
func Port(protocol string, port int64, cidr string) Permission {
	return Permission{
		Protocol: strings.ToLower(protocol),
		FromPort: port,
		ToPort:   port,
		CIDR:     cidr,
	}
}

func (p Permission) String() string {
	if p.FromPort == p.ToPort {
		return fmt.Sprintf("%s/%d from %s", p.Protocol, p.FromPort, p.CIDR)
	}

	return fmt.Sprintf("%s/%d-%d from %s", p.Protocol, p.FromPort, p.ToPort, p.CIDR)
}

func (p Permission) ipPermission() *ec2.IpPermission {
	ip := &ec2.IpPermission{
		IpProtocol: aws.String(p.Protocol),
		FromPort:   aws.Int64(p.FromPort),
		ToPort:     aws.Int64(p.ToPort),
	}

	if strings.Contains(p.CIDR, ":") {
		ip.Ipv6Ranges = []*ec2.Ipv6Range{{CidrIpv6: aws.String(p.CIDR)}}
	} else {
		ip.IpRanges = []*ec2.IpRange{{CidrIp: aws.String(p.CIDR)}}
	}

	return ip
}

type Client struct {
	L   hclog.Logger
	EC2 ec2iface.EC2API
}

// New returns a client using the EC2 API of the given session.
func New(L hclog.Logger, p client.ConfigProvider) *Client {
	return &Client{L: L, EC2: ec2.New(p)}
}

func (c *Client) log() hclog.Logger {
	if c.L == nil {
		c.L = hclog.L()
	}

	return c.L
}

func hasCode(err error, code string) bool {
	var aerr awserr.Error

	if errors.As(err, &aerr) {
		return aerr.Code() == code
	}

	return false
}

// Resolve looks up the security groups with the given names. Group ids
// are needed to edit groups inside a VPC. Names that match no group are
// an error, repeated names resolve once.
func (c *Client) Resolve(ctx context.Context, names []string) ([]*ec2.SecurityGroup, error) {
	if len(names) == 0 {
		return nil, ErrNoGroups
	}

	resp, err := c.EC2.DescribeSecurityGroupsWithContext(ctx, &ec2.DescribeSecurityGroupsInput{
		Filters: []*ec2.Filter{
			{
				Name:   aws.String("group-name"),
				Values: aws.StringSlice(names),
			},
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "describing security groups %s", strings.Join(names, ", "))
	}

	byName := map[string][]*ec2.SecurityGroup{}

	for _, g := range resp.SecurityGroups {
		name := aws.StringValue(g.GroupName)
		byName[name] = append(byName[name], g)
	}

	var (
		groups  []*ec2.SecurityGroup
		missing []string
		seen    = map[string]bool{}
	)

	for _, name := range names {
		if seen[name] {
			continue
		}

		seen[name] = true

		gs, ok := byName[name]
		if !ok {
			missing = append(missing, name)
			continue
		}

		groups = append(groups, gs...)
	}

	if len(missing) > 0 {
		return nil, errors.Wrapf(ErrUnknownGroup, "%s", strings.Join(missing, ", "))
	}

	for _, g := range groups {
		c.log().Debug("resolved security group", "name", aws.StringValue(g.GroupName), "id", aws.StringValue(g.GroupId))
	}

	return groups, nil
}

// authorize reports whether p was added to g by this call.
func (c *Client) authorize(ctx context.Context, g *ec2.SecurityGroup, p Permission) (bool, error) {
	_, err := c.EC2.AuthorizeSecurityGroupIngressWithContext(ctx, &ec2.AuthorizeSecurityGroupIngressInput{
		GroupId:       g.GroupId,
		IpPermissions: []*ec2.IpPermission{p.ipPermission()},
	})

	if err != nil {
		if hasCode(err, codeDuplicate) {
			c.log().Debug("permission already present", "group", aws.StringValue(g.GroupName), "perm", p.String())
			return false, nil
		}

		return false, errors.Wrapf(err, "authorizing %s on %s", p, aws.StringValue(g.GroupName))
	}

	c.log().Info("authorized", "group", aws.StringValue(g.GroupName), "perm", p.String())

	return true, nil
}

func (c *Client) revoke(ctx context.Context, g *ec2.SecurityGroup, p Permission) error {
	_, err := c.EC2.RevokeSecurityGroupIngressWithContext(ctx, &ec2.RevokeSecurityGroupIngressInput{
		GroupId:       g.GroupId,
		IpPermissions: []*ec2.IpPermission{p.ipPermission()},
	})

	if err != nil {
		if hasCode(err, codeNotFound) {
			c.log().Debug("permission already absent", "group", aws.StringValue(g.GroupName), "perm", p.String())
			return nil
		}

		return errors.Wrapf(err, "revoking %s on %s", p, aws.StringValue(g.GroupName))
	}

	c.log().Info("revoked", "group", aws.StringValue(g.GroupName), "perm", p.String())

	return nil
}

// Authorize adds p to every group. A permission that is already present
// is not an error. If any group fails, the rules this call added to the
// other groups are revoked again.
func (c *Client) Authorize(ctx context.Context, groups []*ec2.SecurityGroup, p Permission) error {
	eg, egCtx := errgroup.WithContext(ctx)

	var (
		mu    sync.Mutex
		added []*ec2.SecurityGroup
	)

	for _, g := range groups {
		g := g

		eg.Go(func() error {
			ok, err := c.authorize(egCtx, g, p)
			if ok {
				mu.Lock()
				added = append(added, g)
				mu.Unlock()
			}

			return err
		})
	}

	err := eg.Wait()
	if err == nil || len(added) == 0 {
		return err
	}

	if rerr := c.Revoke(ctx, added, p); rerr != nil {
		c.log().Error("unable to roll back partial authorization", "perm", p.String(), "error", rerr)
	}

	return err
}

// Revoke removes p from every group. A permission that is already absent
// is not an error.
func (c *Client) Revoke(ctx context.Context, groups []*ec2.SecurityGroup, p Permission) error {
	eg, egCtx := errgroup.WithContext(ctx)

	for _, g := range groups {
		g := g

		eg.Go(func() error {
			return c.revoke(egCtx, g, p)
		})
	}

	return eg.Wait()
}

// Permissions expands the ingress rules of g into one Permission per
// cidr block.
func Permissions(g *ec2.SecurityGroup) []Permission {
	var out []Permission

	for _, ip := range g.IpPermissions {
		base := Permission{
			Protocol: aws.StringValue(ip.IpProtocol),
			FromPort: aws.Int64Value(ip.FromPort),
			ToPort:   aws.Int64Value(ip.ToPort),
		}

		for _, r := range ip.IpRanges {
			p := base
			p.CIDR = aws.StringValue(r.CidrIp)
			out = append(out, p)
		}

		for _, r := range ip.Ipv6Ranges {
			p := base
			p.CIDR = aws.StringValue(r.CidrIpv6)
			out = append(out, p)
		}
	}

	return out
}

// Clean revokes every cidr based ingress rule of the groups. Rules that
// reference other groups are left alone.
func (c *Client) Clean(ctx context.Context, groups []*ec2.SecurityGroup) error {
	eg, egCtx := errgroup.WithContext(ctx)

	for _, g := range groups {
		g := g

		eg.Go(func() error {
			for _, p := range Permissions(g) {
				if err := c.revoke(egCtx, g, p); err != nil {
					return err
				}
			}

			return nil
		})
	}

	return eg.Wait()
}

type Rule struct {
	Group string
	Permission
}

// Rules lists the cidr based ingress rules of the groups, ordered by
// group name.
func Rules(groups []*ec2.SecurityGroup) []Rule {
	var rules []Rule

	for _, g := range groups {
		for _, p := range Permissions(g) {
			rules = append(rules, Rule{Group: aws.StringValue(g.GroupName), Permission: p})
		}
	}

	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Group < rules[j].Group
	})

	return rules
}

// PrintRules writes rules as a table of group, protocol, cidr and port.
func PrintRules(w io.Writer, rules []Rule) error {
	tw := tabwriter.NewWriter(w, 4, 2, 1, ' ', 0)

	for _, r := range rules {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", r.Group, r.Protocol, r.CIDR, r.FromPort)
	}

	return tw.Flush()
}
